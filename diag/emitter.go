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
	"fmt"
	"io"

	"github.com/regioncheck/regioncheck/analysis/format"
)

// Emitter renders Diagnostics to an io.Writer, colorized the way the rest
// of this module's CLI colors its output.
type Emitter struct {
	w io.Writer

	// Collected accumulates every diagnostic emitted, for callers (tests,
	// the CLI's exit status) that want the structured form in addition to
	// the printed one.
	Collected []Diagnostic
}

// NewEmitter wraps w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit renders d and records it.
func (e *Emitter) Emit(d Diagnostic) {
	e.Collected = append(e.Collected, d)

	switch d.Kind {
	case ConsumptionYieldsRace:
		fmt.Fprintf(e.w, "%s %s: %s\n", format.Red("error:"), d.Pos, d.Msg)
		for _, n := range d.Notes {
			fmt.Fprintf(e.w, "  %s %s: %s\n", format.Faint("note:"), n.Pos, n.Msg)
		}
		if d.Hidden > 0 {
			fmt.Fprintf(e.w, "  %s (+%d more uses)\n", format.Faint("note:"), d.Hidden)
		}
	case ArgRegionConsumed:
		fmt.Fprintf(e.w, "%s %s: %s\n", format.Yellow("error:"), d.Pos, d.Msg)
	case PossibleRacyAccessSite:
		fmt.Fprintf(e.w, "  %s %s: %s\n", format.Faint("note:"), d.Pos, d.Msg)
	}
}

// Summary prints a one-line count of collected diagnostics.
func (e *Emitter) Summary() {
	if len(e.Collected) == 0 {
		fmt.Fprintln(e.w, format.Green("no region-safety diagnostics"))
		return
	}
	fmt.Fprintf(e.w, "%s %d diagnostic(s)\n", format.Purple("total:"), len(e.Collected))
}
