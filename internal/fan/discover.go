package fan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Discover finds fan base paths matching pattern. A stem is reported when
// <stem>_output exists together with its _min, _max and _manual siblings.
func Discover(fs afero.Fs, pattern string) ([]string, error) {
	matches, err := afero.Glob(fs, pattern+SuffixOutput)
	if err != nil {
		return nil, fmt.Errorf("invalid fan pattern %q: %w", pattern, err)
	}

	var stems []string
	for _, match := range matches {
		stem := strings.TrimSuffix(match, SuffixOutput)

		complete := true
		for _, suffix := range []string{SuffixMin, SuffixMax, SuffixManual} {
			if ok, err := afero.Exists(fs, stem+suffix); err != nil || !ok {
				complete = false
				break
			}
		}

		if complete {
			stems = append(stems, stem)
		}
	}

	sort.Strings(stems)
	return stems, nil
}
