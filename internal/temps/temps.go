package temps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sensor represents a temperature sensor
type Sensor struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Temperature float64 `json:"temperature_celsius"`
	Critical    float64 `json:"critical_celsius"`
	Max         float64 `json:"max_celsius"`
}

// Info represents temperature information
type Info struct {
	CPU    []*Sensor `json:"cpu"`
	GPU    []*Sensor `json:"gpu"`
	System []*Sensor `json:"system"`
	Drives []*Sensor `json:"drives"`
}

// All returns every sensor regardless of category
func (i *Info) All() []*Sensor {
	all := make([]*Sensor, 0, len(i.CPU)+len(i.GPU)+len(i.System)+len(i.Drives))
	all = append(all, i.CPU...)
	all = append(all, i.GPU...)
	all = append(all, i.System...)
	return append(all, i.Drives...)
}

// add files a sensor under the category its name suggests
func (i *Info) add(sensor *Sensor) {
	name := strings.ToLower(sensor.Name)
	switch {
	case containsAny(name, "cpu", "core", "processor", "k10temp", "package"):
		i.CPU = append(i.CPU, sensor)
	case containsAny(name, "gpu", "nvidia", "amdgpu", "radeon", "video"):
		i.GPU = append(i.GPU, sensor)
	case containsAny(name, "drive", "disk", "nvme", "sda", "sdb", "storage"):
		i.Drives = append(i.Drives, sensor)
	default:
		i.System = append(i.System, sensor)
	}
}

func newInfo() *Info {
	return &Info{
		CPU:    []*Sensor{},
		GPU:    []*Sensor{},
		System: []*Sensor{},
		Drives: []*Sensor{},
	}
}

func containsAny(str string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(str, substr) {
			return true
		}
	}
	return false
}

// Reader interface for temperature monitoring
type Reader interface {
	GetInfo(ctx context.Context) (*Info, error)
}

// NewReader creates a new temperature reader for the current platform
func NewReader() Reader {
	return newPlatformReader()
}

// ErrSensorNotFound is returned when no sensor carries the requested name
var ErrSensorNotFound = errors.New("temperature sensor not found")

// Source yields one temperature in whole degrees Celsius, as consumed by fan.Controller.CalcSpeed
type Source interface {
	Read(ctx context.Context) (uint8, error)
}

// Celsius converts a reading to the 0-255 range, truncating fractions
func Celsius(temp float64) uint8 {
	switch {
	case math.IsNaN(temp) || temp <= 0:
		return 0
	case temp >= math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(temp)
	}
}

// SensorSource reads a named sensor from a Reader
type SensorSource struct {
	reader Reader
	key    string
}

// NewSensorSource creates a Source for the sensor named key
func NewSensorSource(reader Reader, key string) *SensorSource {
	return &SensorSource{reader: reader, key: key}
}

// Read returns the hottest sensor named key
func (s *SensorSource) Read(ctx context.Context) (uint8, error) {
	info, err := s.reader.GetInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read sensors: %w", err)
	}

	found := false
	hottest := math.Inf(-1)
	for _, sensor := range info.All() {
		if sensor.Name == s.key {
			found = true
			hottest = math.Max(hottest, sensor.Temperature)
		}
	}

	if !found {
		return 0, fmt.Errorf("%w: %s", ErrSensorNotFound, s.key)
	}
	return Celsius(hottest), nil
}
