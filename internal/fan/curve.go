package fan

import "math"

// Curve maps temperatures to speeds for one policy and one set of hardware bounds
type Curve struct {
	Config Config
	Bounds Bounds
}

// Speed returns the speed recommended for temp.
// The result never exceeds the configured MaxAllowedSpeed.
func (c Curve) Speed(temp uint8) uint32 {
	if c.Config.AlwaysFullSpeed {
		return min(c.Config.MaxAllowedSpeed, c.Bounds.Max)
	}
	return min(c.curveSpeed(temp), c.Config.MaxAllowedSpeed)
}

func (c Curve) curveSpeed(temp uint8) uint32 {
	if temp <= c.Config.LowTemp {
		return c.Bounds.Min
	}
	if temp >= c.Config.HighTemp {
		return c.Bounds.Max
	}

	// LowTemp < temp < HighTemp here, so t >= 1 and span >= 2
	t := uint32(temp - c.Config.LowTemp)
	span := uint32(c.Config.HighTemp - c.Config.LowTemp)
	speedRange := float32(c.Bounds.Max - c.Bounds.Min)

	var ratio float32
	switch c.Config.SpeedCurve {
	case Exponential:
		ratio = float32(t*t*t) / float32(span*span*span)
	case Logarithmic:
		ratio = float32(math.Log(float64(t))) / float32(math.Log(float64(span)))
	default:
		ratio = float32(t) / float32(span)
	}

	return uint32(ratio*speedRange) + c.Bounds.Min
}

// Curve returns the fan's policy bound to its hardware range
func (c *Controller) Curve() Curve {
	return Curve{Config: c.config, Bounds: Bounds{Min: c.minSpeed, Max: c.maxSpeed}}
}

// CalcSpeed returns the speed recommended for temp without applying it
func (c *Controller) CalcSpeed(temp uint8) uint32 {
	return c.Curve().Speed(temp)
}
