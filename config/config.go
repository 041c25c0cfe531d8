// Copyright the regioncheck authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the analyzer's feature gate, policy constants and
// logging verbosity, loaded from a YAML file the same way the rest of this
// module's ambient stack loads configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxRacesPerConsume is the default cap on how many
// PossibleRacyAccessSite notes are shown per ConsumptionYieldsRace.
const DefaultMaxRacesPerConsume = 5

// Config holds every knob the analyzer and its CLI driver consult.
type Config struct {
	// DeferredSendableChecking gates the whole pass: with it false, the
	// analyzer is a no-op regardless of input.
	DeferredSendableChecking bool `yaml:"deferred-sendable-checking"`

	// MaxRacesPerConsume is the `k` policy constant. Zero in the loaded
	// file means "use the default"; see Load.
	MaxRacesPerConsume int `yaml:"max-races-per-consume"`

	// LogLevel controls verbosity; see the LogLevel constants.
	LogLevel int `yaml:"log-level"`

	// PkgFilter restricts analysis to packages whose import path matches
	// this prefix (or regex, if it compiles as one). Empty matches every
	// package.
	PkgFilter string `yaml:"pkg-filter"`

	sourceFile     string
	pkgFilterRegex *regexp.Regexp
}

// NewDefault returns a Config with the pass enabled and every value at its
// documented default.
func NewDefault() *Config {
	return &Config{
		DeferredSendableChecking: true,
		MaxRacesPerConsume:       DefaultMaxRacesPerConsume,
		LogLevel:                 int(InfoLevel),
	}
}

// Load reads and validates a YAML config file, filling in defaults for any
// zero-valued field Load considers unset.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename

	if cfg.MaxRacesPerConsume <= 0 {
		cfg.MaxRacesPerConsume = DefaultMaxRacesPerConsume
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.PkgFilter != "" {
		if r, err := regexp.Compile(cfg.PkgFilter); err == nil {
			cfg.pkgFilterRegex = r
		}
	}
	return cfg, nil
}

// MatchPkgFilter reports whether pkgPath should be analyzed under this
// configuration's PkgFilter. An unset or uncompilable filter falls back to
// a plain prefix check.
func (c *Config) MatchPkgFilter(pkgPath string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgPath)
	}
	if c.PkgFilter != "" {
		return strings.HasPrefix(pkgPath, c.PkgFilter)
	}
	return true
}

// Verbose reports whether the configured verbosity is Debug or above.
func (c *Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
