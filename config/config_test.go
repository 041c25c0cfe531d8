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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultEnablesThePassWithDefaultK(t *testing.T) {
	cfg := NewDefault()
	if !cfg.DeferredSendableChecking {
		t.Errorf("DeferredSendableChecking = false, want true")
	}
	if cfg.MaxRacesPerConsume != DefaultMaxRacesPerConsume {
		t.Errorf("MaxRacesPerConsume = %d, want %d", cfg.MaxRacesPerConsume, DefaultMaxRacesPerConsume)
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regioncheck.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("could not write temp config: %v", err)
	}
	return path
}

func TestLoadFillsInZeroValuedFieldsWithDefaults(t *testing.T) {
	path := writeTempConfig(t, "deferred-sendable-checking: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRacesPerConsume != DefaultMaxRacesPerConsume {
		t.Errorf("MaxRacesPerConsume = %d, want default %d", cfg.MaxRacesPerConsume, DefaultMaxRacesPerConsume)
	}
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("LogLevel = %d, want %d", cfg.LogLevel, InfoLevel)
	}
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeTempConfig(t, "max-races-per-consume: 2\npkg-filter: example.com/service\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRacesPerConsume != 2 {
		t.Errorf("MaxRacesPerConsume = %d, want 2", cfg.MaxRacesPerConsume)
	}
	if !cfg.MatchPkgFilter("example.com/service/widgets") {
		t.Errorf("MatchPkgFilter should accept a subpackage of the configured prefix")
	}
	if cfg.MatchPkgFilter("example.com/other") {
		t.Errorf("MatchPkgFilter should reject a package outside the configured prefix")
	}
}

func TestLoadRejectsAMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load of a missing file should return an error")
	}
}

func TestMatchPkgFilterTreatsEmptyFilterAsMatchAll(t *testing.T) {
	cfg := NewDefault()
	if !cfg.MatchPkgFilter("anything/at/all") {
		t.Errorf("an unset PkgFilter should match every package")
	}
}

func TestMatchPkgFilterAcceptsARegex(t *testing.T) {
	path := writeTempConfig(t, "pkg-filter: ^example\\.com/(a|b)$\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.MatchPkgFilter("example.com/a") {
		t.Errorf("MatchPkgFilter should match against the compiled regex")
	}
	if cfg.MatchPkgFilter("example.com/c") {
		t.Errorf("MatchPkgFilter should reject packages the regex doesn't match")
	}
}

func TestVerboseReflectsLogLevel(t *testing.T) {
	cfg := NewDefault()
	if cfg.Verbose() {
		t.Errorf("Verbose() should be false at the default InfoLevel")
	}
	cfg.LogLevel = int(DebugLevel)
	if !cfg.Verbose() {
		t.Errorf("Verbose() should be true once LogLevel is raised to DebugLevel")
	}
}
