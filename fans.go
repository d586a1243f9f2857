package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/CristiGvl/picoFanCtl/internal/config"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/temps"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// managedFan pairs an opened controller with the config entry it came from
type managedFan struct {
	name       string
	entry      config.FanConfig
	controller *fan.Controller
}

// fanTarget is one control file stem and the name it runs under
type fanTarget struct {
	name string
	path string
}

// expandFan resolves an entry to its stems: the path itself, or one per discover match
// named <name>-<base of stem>.
func expandFan(entry config.FanConfig, fs afero.Fs) ([]fanTarget, error) {
	if entry.Discover == "" {
		return []fanTarget{{name: entry.Name, path: entry.Path}}, nil
	}

	stems, err := fan.Discover(fs, entry.Discover)
	if err != nil {
		return nil, fmt.Errorf("fan %s: %w", entry.Name, err)
	}
	if len(stems) == 0 {
		return nil, fmt.Errorf("fan %s: no fans match %s", entry.Name, entry.Discover)
	}

	targets := make([]fanTarget, 0, len(stems))
	for _, stem := range stems {
		targets = append(targets, fanTarget{name: entry.Name + "-" + filepath.Base(stem), path: stem})
	}
	return targets, nil
}

// openFans expands discover globs and opens a controller for every configured fan.
// On error every controller opened so far is closed.
func openFans(cfg config.Config, fs afero.Fs, logger *zap.Logger) ([]managedFan, error) {
	var fans []managedFan
	fail := func(err error) ([]managedFan, error) {
		closeFans(fans)
		return nil, err
	}

	for _, entry := range cfg.Fans {
		policy, err := entry.Policy()
		if err != nil {
			return fail(fmt.Errorf("fan %s: %w", entry.Name, err))
		}

		targets, err := expandFan(entry, fs)
		if err != nil {
			return fail(err)
		}

		for _, target := range targets {
			c, err := fan.New(target.path, policy, fan.WithFs(fs), fan.WithLogger(logger.With(zap.String("name", target.name))))
			if err != nil {
				return fail(fmt.Errorf("fan %s: %w", target.name, err))
			}
			fans = append(fans, managedFan{name: target.name, entry: entry, controller: c})
		}
	}

	return fans, nil
}

// previewFan is a configured fan's curve, built without touching its control files
type previewFan struct {
	name  string
	curve fan.Curve
}

// previewFans reads the bounds of every configured fan. Nothing is opened for writing.
func previewFans(cfg config.Config, fs afero.Fs) ([]previewFan, error) {
	var fans []previewFan
	for _, entry := range cfg.Fans {
		policy, err := entry.Policy()
		if err != nil {
			return nil, fmt.Errorf("fan %s: %w", entry.Name, err)
		}

		targets, err := expandFan(entry, fs)
		if err != nil {
			return nil, err
		}

		for _, target := range targets {
			bounds, err := fan.ReadBounds(fs, target.path)
			if err != nil {
				return nil, fmt.Errorf("fan %s: %w", target.name, err)
			}
			fans = append(fans, previewFan{name: target.name, curve: fan.Curve{Config: policy, Bounds: bounds}})
		}
	}
	return fans, nil
}

func closeFans(fans []managedFan) error {
	var errs []error
	for _, f := range fans {
		errs = append(errs, f.controller.Close())
	}
	return errors.Join(errs...)
}

// sourceFor builds the temperature source named by a fan entry
func sourceFor(entry config.FanConfig, fs afero.Fs, reader temps.Reader) temps.Source {
	if entry.SensorFile != "" {
		return temps.NewFileSource(fs, entry.SensorFile)
	}
	return temps.NewSensorSource(reader, entry.Sensor)
}

// printCurve writes the speed each fan would get for every temperature from
// a few degrees under LowTemp to a few degrees over HighTemp.
func printCurve(w io.Writer, fans []previewFan, step int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fans {
		cfg := f.curve.Config
		fmt.Fprintf(tw, "%s\t%s\tmin %d\tmax %d\tceiling %d\n", f.name, cfg.SpeedCurve, f.curve.Bounds.Min, f.curve.Bounds.Max, cfg.MaxAllowedSpeed)

		from := max(int(cfg.LowTemp)-step, 0)
		to := min(int(cfg.HighTemp)+step, 255)
		for temp := from; temp <= to; temp += step {
			fmt.Fprintf(tw, "\t%d°C\t%d\t\n", temp, f.curve.Speed(uint8(temp)))
		}
	}
	return tw.Flush()
}
