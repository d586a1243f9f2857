package temps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// FileSource reads a sysfs-style file holding millidegrees Celsius,
// e.g. /sys/class/thermal/thermal_zone0/temp
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a Source backed by the file at path
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// Read returns the file's temperature in whole degrees
func (s *FileSource) Read(ctx context.Context) (uint8, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read temperature file: %w", err)
	}

	milli, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature in %s: %w", s.path, err)
	}

	return Celsius(float64(milli) / 1000), nil
}
