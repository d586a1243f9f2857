package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/CristiGvl/picoFanCtl/internal/config"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/temps"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFan(t *testing.T, fs afero.Fs, base string) {
	t.Helper()
	for name, contents := range map[string]string{
		base + fan.SuffixMin:    "20\n",
		base + fan.SuffixMax:    "100\n",
		base + fan.SuffixManual: "",
		base + fan.SuffixOutput: "",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte(contents), 0o644))
	}
}

func fanEntry(name string) config.FanConfig {
	return config.FanConfig{
		Name:            name,
		Sensor:          "coretemp_package_id_0",
		MaxAllowedSpeed: 100,
		LowTemp:         40,
		HighTemp:        80,
		SpeedCurve:      "linear",
	}
}

func TestOpenFans_PathAndDiscover(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFan(t, fs, "/sys/fanctl/fan1")
	writeFan(t, fs, "/sys/fanctl/fan2")
	writeFan(t, fs, "/sys/other/pwm")

	single := fanEntry("cpu")
	single.Path = "/sys/other/pwm"
	group := fanEntry("case")
	group.Discover = "/sys/fanctl/fan*"

	fans, err := openFans(config.Config{Fans: []config.FanConfig{single, group}}, fs, zap.NewNop())
	require.NoError(t, err)
	defer closeFans(fans)

	var names []string
	for _, f := range fans {
		names = append(names, f.name)
	}
	assert.Equal(t, []string{"cpu", "case-fan1", "case-fan2"}, names)
	assert.Equal(t, "/sys/fanctl/fan2", fans[2].controller.Path())
}

func TestOpenFans_ClosesOnFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFan(t, fs, "/sys/fanctl/fan1")

	good := fanEntry("good")
	good.Path = "/sys/fanctl/fan1"
	missing := fanEntry("missing")
	missing.Path = "/sys/fanctl/fan9"

	_, err := openFans(config.Config{Fans: []config.FanConfig{good, missing}}, fs, zap.NewNop())
	require.ErrorIs(t, err, fan.ErrMinSpeedRead)
	assert.Contains(t, err.Error(), "fan missing")

	empty := fanEntry("empty")
	empty.Discover = "/sys/nothing/fan*"
	_, err = openFans(config.Config{Fans: []config.FanConfig{empty}}, fs, zap.NewNop())
	require.EqualError(t, err, "fan empty: no fans match /sys/nothing/fan*")
}

func TestSourceFor(t *testing.T) {
	fs := afero.NewMemMapFs()
	entry := fanEntry("cpu")
	assert.IsType(t, &temps.SensorSource{}, sourceFor(entry, fs, nil))

	entry.Sensor = ""
	entry.SensorFile = "/sys/class/thermal/thermal_zone0/temp"
	assert.IsType(t, &temps.FileSource{}, sourceFor(entry, fs, nil))
}

func TestPrintCurve(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFan(t, fs, "/sys/fanctl/fan1")
	entry := fanEntry("cpu")
	entry.Path = "/sys/fanctl/fan1"

	fans, err := previewFans(config.Config{Fans: []config.FanConfig{entry}}, fs)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printCurve(&out, fans, 20))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "cpu")
	assert.Contains(t, lines[0], "linear")
	assert.Equal(t, []string{"20°C", "20"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"60°C", "60"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"100°C", "100"}, strings.Fields(lines[5]))
}

func TestDiscoverCommand(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFan(t, fs, "/sys/fanctl/fan1")

	var out bytes.Buffer
	cmd := newRootCmd(fs, zap.NewNop())
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"discover", "/sys/fanctl/fan*"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/sys/fanctl/fan1\n", out.String())
}

func TestCurveCommand(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFan(t, fs, "/sys/fanctl/fan1")
	require.NoError(t, afero.WriteFile(fs, "/sys/fanctl/fan1"+fan.SuffixOutput, []byte("1500"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/etc/picofanctl/config.yaml", []byte(`
fans:
  - name: cpu
    path: /sys/fanctl/fan1
    sensor: coretemp_package_id_0
    max_allowed_speed: 50
    low_temp: 40
    high_temp: 80
`), 0o644))

	// Previewing needs no write access and leaves the fan as it was
	var out bytes.Buffer
	cmd := newRootCmd(afero.NewReadOnlyFs(fs), zap.NewNop())
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"curve", "--step", "40"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ceiling 50")

	output, err := afero.ReadFile(fs, "/sys/fanctl/fan1"+fan.SuffixOutput)
	require.NoError(t, err)
	assert.Equal(t, "1500", string(output))

	cmd = newRootCmd(fs, zap.NewNop())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"curve", "--step", "0"})
	require.Error(t, cmd.Execute())
}

func TestPreviewFans_BadBounds(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFan(t, fs, "/sys/fanctl/fan1")
	require.NoError(t, afero.WriteFile(fs, "/sys/fanctl/fan1"+fan.SuffixMin, []byte("500"), 0o644))

	entry := fanEntry("cpu")
	entry.Path = "/sys/fanctl/fan1"
	_, err := previewFans(config.Config{Fans: []config.FanConfig{entry}}, fs)
	require.ErrorIs(t, err, fan.ErrInvalidBounds)
}
