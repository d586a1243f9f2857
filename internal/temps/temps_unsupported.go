//go:build !linux && !windows

package temps

import (
	"context"
	"fmt"
	"runtime"
)

// UnsupportedReader is a fallback for platforms without a sensor backend
type UnsupportedReader struct{}

func newPlatformReader() Reader {
	return &UnsupportedReader{}
}

// GetInfo returns an error; use a file source (sensor_file) on these platforms
func (r *UnsupportedReader) GetInfo(ctx context.Context) (*Info, error) {
	return nil, fmt.Errorf("sensor temperatures not supported on %s", runtime.GOOS)
}
