package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/CristiGvl/picoFanCtl/api"
	"github.com/CristiGvl/picoFanCtl/internal/config"
	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/publish"
	"github.com/CristiGvl/picoFanCtl/internal/temps"
	"github.com/oklog/run"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func createLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		log.Panic("Cannot initialize logger.", err)
	}

	return logger
}

func main() {
	logger := createLogger()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	if err := newRootCmd(afero.NewOsFs(), logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs, logger *zap.Logger) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "picofanctl",
		Short:        "Temperature driven fan control",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/picofanctl/config.yaml", "Path to YAML or HCL config")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Drive the configured fans until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(fs, configPath)
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, fs, logger)
		},
	})

	var step int
	curveCmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the speed each configured fan would get per temperature",
		RunE: func(cmd *cobra.Command, args []string) error {
			if step <= 0 {
				return fmt.Errorf("--step must be > 0")
			}
			cfg, err := config.Load(fs, configPath)
			if err != nil {
				return err
			}
			fans, err := previewFans(cfg, fs)
			if err != nil {
				return err
			}
			return printCurve(cmd.OutOrStdout(), fans, step)
		},
	}
	curveCmd.Flags().IntVar(&step, "step", 5, "Temperature step in degrees")
	root.AddCommand(curveCmd)

	root.AddCommand(&cobra.Command{
		Use:   "discover <pattern>",
		Short: "List fan base paths matching a glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stems, err := fan.Discover(fs, args[0])
			if err != nil {
				return err
			}
			for _, stem := range stems {
				fmt.Fprintln(cmd.OutOrStdout(), stem)
			}
			return nil
		},
	})

	return root
}

func runDaemon(ctx context.Context, cfg config.Config, fs afero.Fs, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader := temps.NewReader()

	var publisher control.Publisher
	if cfg.MQTT != nil {
		hostname, _ := os.Hostname()
		m, err := publish.NewMQTT(*cfg.MQTT, "picofanctl-"+hostname)
		if err != nil {
			return err
		}
		defer m.Close()
		publisher = m
		logger.Info("publishing fan status", zap.String("broker", cfg.MQTT.Broker))
	}

	fans, err := openFans(cfg, fs, logger)
	if err != nil {
		return err
	}
	defer closeFans(fans)

	loops := make([]*control.Loop, 0, len(fans))
	for _, f := range fans {
		loops = append(loops, control.New(f.name, f.controller, sourceFor(f.entry, fs, reader), cfg.Interval, logger, publisher))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group

	for _, loop := range loops {
		// A failed fan is left alone; the others keep running
		g.Add(func() error {
			if err := loop.Run(ctx); err != nil {
				logger.Error("fan control stopped", zap.String("name", loop.Name()), zap.Error(err))
			}
			<-ctx.Done()
			return nil
		}, func(error) {
			cancel()
		})
	}

	server := api.NewServer(loops, reader)
	g.Add(func() error {
		logger.Info("starting status API", zap.String("listen", cfg.Listen))
		return server.Start(cfg.Listen)
	}, func(error) {
		if err := server.Shutdown(); err != nil {
			logger.Warn("error during shutdown", zap.Error(err))
		}
	})

	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		logger.Info("picofanctl exiting...", zap.Stringer("signal", sigErr.Signal))
		return nil
	}
	return err
}
