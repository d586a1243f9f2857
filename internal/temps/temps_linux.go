//go:build linux

package temps

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
)

// LinuxReader implements temperature monitoring for Linux
type LinuxReader struct{}

// newPlatformReader creates a new Linux temperature reader
func newPlatformReader() Reader {
	return &LinuxReader{}
}

// GetInfo returns temperature information from hwmon/thermal sensors
func (r *LinuxReader) GetInfo(ctx context.Context) (*Info, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return nil, err
	}

	// gopsutil reports partial results together with a warning error
	info := newInfo()
	for _, stat := range stats {
		info.add(&Sensor{
			Name:        stat.SensorKey,
			Label:       stat.SensorKey,
			Temperature: stat.Temperature,
			Critical:    stat.Critical,
			Max:         stat.High,
		})
	}

	return info, nil
}
