package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration
type Config struct {
	Interval time.Duration `yaml:"interval"`
	Listen   string        `yaml:"listen"`
	MQTT     *MQTTConfig   `yaml:"mqtt"`
	Fans     []FanConfig   `yaml:"fans"`
}

// MQTTConfig represents the optional status broker
type MQTTConfig struct {
	Broker      string `yaml:"broker" hcl:"broker"`
	Username    string `yaml:"username" hcl:"username,optional"`
	Password    string `yaml:"password" hcl:"password,optional"`
	TopicPrefix string `yaml:"topic_prefix" hcl:"topic_prefix,optional"`
}

// FanConfig describes one fan. Exactly one of Path and Discover is set:
// Path names the control file stem, Discover is a glob expanded into stems.
type FanConfig struct {
	Name            string `yaml:"name" hcl:"name,label"`
	Path            string `yaml:"path" hcl:"path,optional"`
	Discover        string `yaml:"discover" hcl:"discover,optional"`
	Sensor          string `yaml:"sensor" hcl:"sensor,optional"`
	SensorFile      string `yaml:"sensor_file" hcl:"sensor_file,optional"`
	MaxAllowedSpeed uint32 `yaml:"max_allowed_speed" hcl:"max_allowed_speed"`
	AlwaysFullSpeed bool   `yaml:"always_full_speed" hcl:"always_full_speed,optional"`
	LowTemp         uint8  `yaml:"low_temp" hcl:"low_temp"`
	HighTemp        uint8  `yaml:"high_temp" hcl:"high_temp"`
	SpeedCurve      string `yaml:"speed_curve" hcl:"speed_curve,optional"`
}

// Policy converts the entry to the controller's config
func (f FanConfig) Policy() (fan.Config, error) {
	curve, err := fan.ParseSpeedCurve(f.SpeedCurve)
	if err != nil {
		return fan.Config{}, err
	}

	cfg := fan.Config{
		MaxAllowedSpeed: f.MaxAllowedSpeed,
		AlwaysFullSpeed: f.AlwaysFullSpeed,
		LowTemp:         f.LowTemp,
		HighTemp:        f.HighTemp,
		SpeedCurve:      curve,
	}
	return cfg, cfg.Validate()
}

// hclFile mirrors Config for HCL, which has no duration type
type hclFile struct {
	Interval string      `hcl:"interval,optional"`
	Listen   string      `hcl:"listen,optional"`
	MQTT     *MQTTConfig `hcl:"mqtt,block"`
	Fans     []FanConfig `hcl:"fan,block"`
}

// Load reads a YAML (.yaml, .yml) or HCL (.hcl) config file from fs, applies defaults and validates it.
func Load(fs afero.Fs, path string) (Config, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		cfg, err = parseHCL(b, path)
	default:
		err = yaml.Unmarshal(b, &cfg)
	}
	if err != nil {
		return Config{}, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseHCL(b []byte, path string) (Config, error) {
	file, diags := hclsyntax.ParseConfig(b, path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("config parse: %w", diags)
	}

	var raw hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return Config{}, fmt.Errorf("config parse: %w", diags)
	}

	cfg := Config{
		Listen: raw.Listen,
		MQTT:   raw.MQTT,
		Fans:   raw.Fans,
	}
	if raw.Interval != "" {
		interval, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return Config{}, fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = interval
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Interval == 0 {
		c.Interval = 2 * time.Second
	}
	if c.Listen == "" {
		c.Listen = "0.0.0.0:8080"
	}
	if c.MQTT != nil && c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "picofanctl"
	}
	for i := range c.Fans {
		if c.Fans[i].SpeedCurve == "" {
			c.Fans[i].SpeedCurve = fan.Linear.String()
		}
	}
}

func (c *Config) validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if c.MQTT != nil && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is set")
	}
	if len(c.Fans) == 0 {
		return fmt.Errorf("at least one fan is required")
	}

	seen := map[string]bool{}
	for i, f := range c.Fans {
		if f.Name == "" {
			return fmt.Errorf("fans[%d].name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("fans[%d].name %q is duplicated", i, f.Name)
		}
		seen[f.Name] = true

		if (f.Path == "") == (f.Discover == "") {
			return fmt.Errorf("fan %s: exactly one of path and discover is required", f.Name)
		}
		if (f.Sensor == "") == (f.SensorFile == "") {
			return fmt.Errorf("fan %s: exactly one of sensor and sensor_file is required", f.Name)
		}
		if _, err := f.Policy(); err != nil {
			return fmt.Errorf("fan %s: %w", f.Name, err)
		}
		// A zero ceiling would hold every fan at 0
		if f.MaxAllowedSpeed == 0 {
			return fmt.Errorf("fan %s: max_allowed_speed is required", f.Name)
		}
	}
	return nil
}
