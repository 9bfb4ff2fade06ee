// Package config loads the optional TOML configuration of cjbindgen.
package config

import (
	"os"
	"regexp"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config is the configuration file as it is encoded in TOML.
type Config struct {
	Package        string   `toml:"package"`
	Strict         bool     `toml:"strict"`
	ReservedSuffix string   `toml:"reserved-suffix"`
	Skip           []string `toml:"skip,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Package:        "clang_cj",
		ReservedSuffix: "_",
	}
}

// Load reads the TOML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	cfg := Default()
	if err := toml.Unmarshal(buff, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

var (
	identRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	suffixRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Validate checks that the values can appear in generated code.
func (c *Config) Validate() error {
	if c.Package == "" {
		return errors.New("missing package name")
	}
	if !identRe.MatchString(c.Package) {
		return errors.Errorf("package name %q is not an identifier", c.Package)
	}
	if !suffixRe.MatchString(c.ReservedSuffix) {
		return errors.Errorf("reserved suffix %q must be made of letters, digits or underscores", c.ReservedSuffix)
	}
	for _, name := range c.Skip {
		if name == "" {
			return errors.New("empty name in skip list")
		}
	}
	return nil
}
