package fan

import (
	"errors"
	"fmt"
	"strings"
)

// SpeedCurve selects how a temperature between LowTemp and HighTemp maps to a speed
type SpeedCurve int

const (
	Linear SpeedCurve = iota
	Exponential
	Logarithmic
)

// String returns the config file name of the curve
func (c SpeedCurve) String() string {
	switch c {
	case Linear:
		return "linear"
	case Exponential:
		return "exponential"
	case Logarithmic:
		return "logarithmic"
	default:
		return fmt.Sprintf("SpeedCurve(%d)", int(c))
	}
}

// ParseSpeedCurve parses the config file name of a curve (case-insensitive)
func ParseSpeedCurve(s string) (SpeedCurve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "exponential":
		return Exponential, nil
	case "logarithmic":
		return Logarithmic, nil
	default:
		return Linear, fmt.Errorf("unknown speed curve %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (c SpeedCurve) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *SpeedCurve) UnmarshalText(text []byte) error {
	curve, err := ParseSpeedCurve(string(text))
	if err != nil {
		return err
	}
	*c = curve
	return nil
}

// Config represents the control policy of one fan
type Config struct {
	MaxAllowedSpeed uint32     `json:"max_allowed_speed"`
	AlwaysFullSpeed bool       `json:"always_full_speed"`
	LowTemp         uint8      `json:"low_temp"`
	HighTemp        uint8      `json:"high_temp"`
	SpeedCurve      SpeedCurve `json:"speed_curve"`
}

// Validate checks that LowTemp < HighTemp and the curve is known
func (c Config) Validate() error {
	if c.LowTemp >= c.HighTemp {
		return fmt.Errorf("%w: low_temp %d must be below high_temp %d", ErrInvalidConfig, c.LowTemp, c.HighTemp)
	}
	switch c.SpeedCurve {
	case Linear, Exponential, Logarithmic:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidConfig, c.SpeedCurve)
	}
	return nil
}

// Errors returned by the controller. Returned errors wrap one of these
// together with the underlying cause, test with errors.Is.
var (
	ErrMinSpeedRead  = errors.New("failed to read minimum fan speed")
	ErrMinSpeedParse = errors.New("failed to parse minimum fan speed")
	ErrMaxSpeedRead  = errors.New("failed to read maximum fan speed")
	ErrMaxSpeedParse = errors.New("failed to parse maximum fan speed")
	ErrFanOpen       = errors.New("failed to open fan control file")
	ErrFanWrite      = errors.New("failed to write fan control file")
	ErrInvalidConfig = errors.New("invalid fan config")
	ErrInvalidBounds = errors.New("invalid fan speed bounds")
)

// Control file suffixes appended to a fan's base path
const (
	SuffixMin    = "_min"
	SuffixMax    = "_max"
	SuffixManual = "_manual"
	SuffixOutput = "_output"
)
