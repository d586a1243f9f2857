package control

import (
	"context"
	"sync"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/temps"
	"go.uber.org/zap"
)

// Driver is the part of fan.Controller a Loop needs
type Driver interface {
	Path() string
	MinSpeed() uint32
	MaxSpeed() uint32
	SetManual(enabled bool) error
	CalcSpeed(temp uint8) uint32
	SetSpeed(speed uint32) (uint32, error)
}

// Publisher receives the status after every applied speed
type Publisher interface {
	Publish(status Status) error
}

// Status represents the last known state of a controlled fan
type Status struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	MinSpeed    uint32    `json:"min_speed"`
	MaxSpeed    uint32    `json:"max_speed"`
	Temperature uint8     `json:"temperature_celsius"`
	Speed       uint32    `json:"speed"`
	Manual      bool      `json:"manual"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// Loop periodically maps one temperature source onto one fan
type Loop struct {
	name      string
	driver    Driver
	source    temps.Source
	interval  time.Duration
	logger    *zap.Logger
	publisher Publisher

	mu     sync.Mutex
	status Status
}

// New creates a control loop. publisher may be nil.
func New(name string, driver Driver, source temps.Source, interval time.Duration, logger *zap.Logger, publisher Publisher) *Loop {
	return &Loop{
		name:      name,
		driver:    driver,
		source:    source,
		interval:  interval,
		logger:    logger.With(zap.String("name", name)),
		publisher: publisher,
		status: Status{
			Name:     name,
			Path:     driver.Path(),
			MinSpeed: driver.MinSpeed(),
			MaxSpeed: driver.MaxSpeed(),
		},
	}
}

// Name returns the configured fan name
func (l *Loop) Name() string { return l.name }

// Driver returns the fan the loop controls
func (l *Loop) Driver() Driver { return l.driver }

// Status returns a snapshot of the fan state
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Run enables manual control and applies a speed every interval until ctx is done
// or a write fails. Automatic control is restored on return.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.driver.SetManual(true); err != nil {
		return err
	}
	l.update(func(s *Status) { s.Manual = true })
	defer l.restore()

	l.logger.Info("starting fan control", zap.Duration("interval", l.interval))

	tick := time.NewTicker(l.interval)
	defer tick.Stop()

	for {
		if err := l.Step(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			l.logger.Info("stopping fan control")
			return nil
		case <-tick.C:
		}
	}
}

// Step reads the temperature once and applies the resulting speed.
// An unreadable sensor drives the fan to its maximum speed.
func (l *Loop) Step(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	var speed uint32
	temp, readErr := l.source.Read(ctx)
	if readErr != nil {
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("temperature unavailable, running fan at maximum", zap.Error(readErr))
		speed = l.driver.MaxSpeed()
	} else {
		speed = l.driver.CalcSpeed(temp)
	}

	written, err := l.driver.SetSpeed(speed)
	if err != nil {
		l.update(func(s *Status) { s.LastError = err.Error() })
		return err
	}

	l.update(func(s *Status) {
		if readErr == nil {
			s.Temperature = temp
			s.LastError = ""
		} else {
			s.LastError = readErr.Error()
		}
		s.Speed = written
		s.UpdatedAt = time.Now()
	})

	if l.publisher != nil {
		if err := l.publisher.Publish(l.Status()); err != nil {
			l.logger.Warn("failed to publish fan status", zap.Error(err))
		}
	}
	return nil
}

func (l *Loop) restore() {
	if err := l.driver.SetManual(false); err != nil {
		l.logger.Error("failed to restore automatic fan control", zap.Error(err))
		return
	}
	l.update(func(s *Status) { s.Manual = false })
}

func (l *Loop) update(fn func(s *Status)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.status)
}
