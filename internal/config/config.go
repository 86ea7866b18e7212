// Package config loads the small set of shared default options
// cmd/lutmap and cmd/cellmap accept on the command line from a YAML file,
// so a project can check in one options file instead of repeating
// -k/-t/-s/-n/-w/-suffix on every invocation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options mirrors the subset of CLI flags both binaries share. Zero values
// mean "not set in the file" and are left for the flag's own default.
type Options struct {
	K         int     `yaml:"k"`
	RegWeight float64 `yaml:"reg_weight"`
	Timeout   int     `yaml:"timeout"`
	NodeLimit int     `yaml:"node_limit"`
	IterLimit int     `yaml:"iter_limit"`
	Suffix    string  `yaml:"suffix"`
}

// Load reads and parses a YAML options file.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &o, nil
}

// Explicit tracks which flag names were set explicitly on the command
// line, via flag.Visit, so a loaded Options file only fills in flags the
// user did not set on the command line.
type Explicit map[string]bool

// Overlay applies a flag's config-file value to dst unless name is in set,
// i.e. the command line already provided an explicit value for it.
func Overlay[T comparable](set Explicit, name string, dst *T, fromFile T, zero T) {
	if set[name] || fromFile == zero {
		return
	}
	*dst = fromFile
}
