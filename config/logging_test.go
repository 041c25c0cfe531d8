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
	"bytes"
	"strings"
	"testing"
)

func TestLogGroupGatesBelowConfiguredLevel(t *testing.T) {
	cfg := NewDefault()
	cfg.LogLevel = int(WarnLevel)
	l := NewLogGroup(cfg)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)

	l.Infof("should not appear")
	l.Debugf("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("expected nothing logged below WarnLevel, got %q", buf.String())
	}

	l.Warnf("heads up")
	if !strings.Contains(buf.String(), "heads up") {
		t.Errorf("expected the warning to be logged, got %q", buf.String())
	}
}

func TestLogGroupAtTraceLevelLogsEverything(t *testing.T) {
	cfg := NewDefault()
	cfg.LogLevel = int(TraceLevel)
	l := NewLogGroup(cfg)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)

	l.Tracef("translating op %d", 3)
	if !strings.Contains(buf.String(), "translating op 3") {
		t.Errorf("expected the trace line to be logged, got %q", buf.String())
	}
}

func TestGetDebugReturnsTheDebugLogger(t *testing.T) {
	cfg := NewDefault()
	cfg.LogLevel = int(DebugLevel)
	l := NewLogGroup(cfg)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)

	l.GetDebug().Printf("direct write")
	if !strings.Contains(buf.String(), "direct write") {
		t.Errorf("expected the debug logger's own Printf to be captured, got %q", buf.String())
	}
}
