package fan

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFanFiles(t, fs, "/sys/fanctl/fan2", "0", "255")
	writeFanFiles(t, fs, "/sys/fanctl/fan1", "0", "255")
	// incomplete: no _manual
	require.NoError(t, afero.WriteFile(fs, "/sys/fanctl/fan3_output", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sys/fanctl/fan3_min", []byte("0"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sys/fanctl/fan3_max", []byte("255"), 0o644))

	stems, err := Discover(fs, "/sys/fanctl/fan*")
	require.NoError(t, err)
	assert.Equal(t, []string{"/sys/fanctl/fan1", "/sys/fanctl/fan2"}, stems)
}

func TestDiscover_NoMatches(t *testing.T) {
	stems, err := Discover(afero.NewMemMapFs(), "/sys/fanctl/fan*")
	require.NoError(t, err)
	assert.Empty(t, stems)
}

func TestDiscover_BadPattern(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFanFiles(t, fs, "/sys/fanctl/fan1", "0", "255")

	_, err := Discover(fs, "/sys/fanctl/fan[")
	require.Error(t, err)
}
