package fan

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Controller drives one fan through its _manual and _output files.
// A Controller is not safe for concurrent use.
type Controller struct {
	path   string
	config Config
	logger *zap.Logger

	manualFile afero.File
	outputFile afero.File

	minSpeed uint32
	maxSpeed uint32
}

type options struct {
	fs     afero.Fs
	logger *zap.Logger
}

// Option configures New
type Option func(*options)

// WithFs sets the filesystem the control files live on. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger sets the logger receiving discovery and speed events
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New reads the hardware bounds of the fan at path and opens its control files.
// path is the common stem of the <path>_min, _max, _manual and _output files.
func New(path string, config Config, opts ...Option) (*Controller, error) {
	o := options{fs: afero.NewOsFs(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	bounds, err := ReadBounds(o.fs, path)
	if err != nil {
		return nil, err
	}
	minSpeed, maxSpeed := bounds.Min, bounds.Max

	manualFile, err := openControl(o.fs, path+SuffixManual)
	if err != nil {
		return nil, err
	}

	outputFile, err := openControl(o.fs, path+SuffixOutput)
	if err != nil {
		manualFile.Close()
		return nil, err
	}

	c := &Controller{
		path:       path,
		config:     config,
		logger:     o.logger.With(zap.String("fan", path)),
		manualFile: manualFile,
		outputFile: outputFile,
		minSpeed:   minSpeed,
		maxSpeed:   maxSpeed,
	}

	c.logger.Info("found fan",
		zap.Uint32("min_speed", minSpeed),
		zap.Uint32("max_speed", maxSpeed),
		zap.Uint32("max_allowed_speed", config.MaxAllowedSpeed),
		zap.Bool("always_full_speed", config.AlwaysFullSpeed),
		zap.Uint8("low_temp", config.LowTemp),
		zap.Uint8("high_temp", config.HighTemp),
		zap.Stringer("speed_curve", config.SpeedCurve),
	)

	return c, nil
}

// Bounds is the hardware speed range reported by a fan
type Bounds struct {
	Min uint32 `json:"min_speed"`
	Max uint32 `json:"max_speed"`
}

// ReadBounds reads the _min and _max files of the fan at path.
// The control files are not opened, so it is safe on a fan driven by someone else.
func ReadBounds(fs afero.Fs, path string) (Bounds, error) {
	minSpeed, err := readSpeed(fs, path+SuffixMin, strings.TrimSpace, ErrMinSpeedRead, ErrMinSpeedParse)
	if err != nil {
		return Bounds{}, err
	}

	// Only trailing whitespace is tolerated in _max
	maxSpeed, err := readSpeed(fs, path+SuffixMax, trimRight, ErrMaxSpeedRead, ErrMaxSpeedParse)
	if err != nil {
		return Bounds{}, err
	}

	if minSpeed > maxSpeed {
		return Bounds{}, fmt.Errorf("%w: %s: min %d > max %d", ErrInvalidBounds, path, minSpeed, maxSpeed)
	}
	return Bounds{Min: minSpeed, Max: maxSpeed}, nil
}

func trimRight(s string) string {
	return strings.TrimRight(s, " \t\r\n\v\f")
}

func readSpeed(fs afero.Fs, name string, trim func(string) string, readErr, parseErr error) (uint32, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", readErr, err)
	}

	speed, err := strconv.ParseUint(trim(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", parseErr, name, err)
	}

	return uint32(speed), nil
}

// openControl opens an existing control file for writing. Control files are never created.
func openControl(fs afero.Fs, name string) (afero.File, error) {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFanOpen, err)
	}
	return f, nil
}

// Path returns the base path of the fan
func (c *Controller) Path() string { return c.path }

// MinSpeed returns the hardware minimum speed
func (c *Controller) MinSpeed() uint32 { return c.minSpeed }

// MaxSpeed returns the hardware maximum speed
func (c *Controller) MaxSpeed() uint32 { return c.maxSpeed }

// Config returns the control policy the fan was built with
func (c *Controller) Config() Config { return c.config }

// SetManual switches the fan between manual (software) and automatic (firmware) control
func (c *Controller) SetManual(enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}

	if _, err := c.manualFile.WriteString(value); err != nil {
		return fmt.Errorf("%w: %s%s: %w", ErrFanWrite, c.path, SuffixManual, err)
	}
	return nil
}

// Clamp bounds speed to the hardware range, then to the configured ceiling.
// The ceiling only ever lowers the value.
func (c *Controller) Clamp(speed uint32) uint32 {
	if speed < c.minSpeed {
		speed = c.minSpeed
	} else if speed > c.maxSpeed {
		speed = c.maxSpeed
	}

	if speed > c.config.MaxAllowedSpeed {
		speed = c.config.MaxAllowedSpeed
	}

	return speed
}

// SetSpeed clamps speed and writes it to the output file. It returns the value written.
func (c *Controller) SetSpeed(speed uint32) (uint32, error) {
	speed = c.Clamp(speed)

	c.logger.Info("setting fan speed", zap.Uint32("speed", speed))

	if _, err := c.outputFile.WriteString(strconv.FormatUint(uint64(speed), 10)); err != nil {
		return speed, fmt.Errorf("%w: %s%s: %w", ErrFanWrite, c.path, SuffixOutput, err)
	}
	return speed, nil
}

// Close releases the control files
func (c *Controller) Close() error {
	return errors.Join(c.manualFile.Close(), c.outputFile.Close())
}
