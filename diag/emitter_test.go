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

package diag

import (
	"bytes"
	"go/token"
	"strings"
	"testing"
)

func TestEmitConsumptionYieldsRaceIncludesNotesAndHiddenCount(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	e.Emit(Diagnostic{
		Kind:     ConsumptionYieldsRace,
		Pos:      token.Position{Filename: "f.go", Line: 10},
		Function: "f",
		Msg:      "value consumed here may still be accessed concurrently",
		Notes: []Note{
			{Pos: token.Position{Filename: "f.go", Line: 12}, Msg: "accessed here"},
		},
		Hidden: 3,
	})

	out := buf.String()
	if !strings.Contains(out, "error:") {
		t.Fatalf("expected an error line, got %q", out)
	}
	if !strings.Contains(out, "accessed here") {
		t.Fatalf("expected the note to be rendered, got %q", out)
	}
	if !strings.Contains(out, "(+3 more uses)") {
		t.Fatalf("expected the hidden count to be rendered, got %q", out)
	}
	if len(e.Collected) != 1 || e.Collected[0].Msg != "value consumed here may still be accessed concurrently" {
		t.Fatalf("expected the diagnostic to be recorded, got %v", e.Collected)
	}
}

func TestEmitArgRegionConsumedHasNoNotes(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	e.Emit(Diagnostic{
		Kind: ArgRegionConsumed,
		Pos:  token.Position{Filename: "f.go", Line: 3},
		Msg:  "argument region consumed",
	})

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one line for ArgRegionConsumed, got %q", out)
	}
	if !strings.Contains(out, "argument region consumed") {
		t.Fatalf("expected the message to be rendered, got %q", out)
	}
}

func TestEmitPossibleRacyAccessSiteIsIndented(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	e.Emit(Diagnostic{
		Kind: PossibleRacyAccessSite,
		Pos:  token.Position{Filename: "f.go", Line: 7},
		Msg:  "racy access",
	})

	if !strings.HasPrefix(buf.String(), "  ") {
		t.Fatalf("expected a standalone note to be indented, got %q", buf.String())
	}
}

func TestSummaryReportsNoDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	e.Summary()

	if !strings.Contains(buf.String(), "no region-safety diagnostics") {
		t.Fatalf("expected the empty-case message, got %q", buf.String())
	}
}

func TestSummaryCountsCollectedDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	e.Emit(Diagnostic{Kind: ArgRegionConsumed, Msg: "a"})
	e.Emit(Diagnostic{Kind: ArgRegionConsumed, Msg: "b"})
	buf.Reset()

	e.Summary()

	if !strings.Contains(buf.String(), "2 diagnostic(s)") {
		t.Fatalf("expected a count of 2, got %q", buf.String())
	}
}
