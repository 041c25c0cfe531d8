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

package ssair

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/ssa"
)

func TestColorGoroutinesRecordsEveryGoStatement(t *testing.T) {
	prog := loadSample(t)
	cg := cha.CallGraph(prog)
	coloring := ColorGoroutines(cg, prog, nil)

	if len(coloring.goCalls) != 1 {
		t.Fatalf("expected exactly one `go` statement in testdata/sample, found %d", len(coloring.goCalls))
	}
	for _, id := range coloring.goCalls {
		if id == 0 {
			t.Errorf("a real go-call id must never be 0 (0 means \"not under any spawn\")")
		}
	}
}

func TestColorGoroutinesLogsGoCallsAtDebugLevel(t *testing.T) {
	prog := loadSample(t)
	cg := cha.CallGraph(prog)
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	ColorGoroutines(cg, prog, logger)

	if !strings.Contains(buf.String(), "go call:") {
		t.Errorf("expected a \"go call:\" line logged for testdata/sample's goroutine, got %q", buf.String())
	}
}

func TestRunsConcurrentlyMarksTheSpawnedClosure(t *testing.T) {
	prog := loadSample(t)
	cg := cha.CallGraph(prog)
	coloring := ColorGoroutines(cg, prog, nil)

	mainFn := findFunc(prog, "main")
	if mainFn == nil {
		t.Fatalf("could not find function main")
	}
	goInstr, ok := firstInstr[*ssa.Go](mainFn)
	if !ok {
		t.Fatalf("main() has no *ssa.Go instruction")
	}
	closure := goInstr.Call.StaticCallee()
	if closure == nil {
		t.Fatalf("expected the go statement to spawn a statically known closure")
	}

	if !coloring.RunsConcurrently(cg, closure) {
		t.Errorf("the closure spawned by `go func(){...}()` must be reported as running concurrently")
	}
	if coloring.RunsConcurrently(cg, mainFn) {
		t.Errorf("main itself is never reached through a goroutine spawn and must not be marked concurrent")
	}
}

func TestRunsConcurrentlyIsFalseAgainstAMismatchedGraph(t *testing.T) {
	prog := loadSample(t)
	cg := cha.CallGraph(prog)
	coloring := ColorGoroutines(cg, prog, nil)

	// A second, independently built call graph has different *callgraph.Node
	// identities even for the same functions, so looking a node up against
	// it must come back empty rather than panic.
	other := cha.CallGraph(prog)
	fn := findFunc(prog, "store")
	if fn == nil {
		t.Fatalf("could not find function store")
	}
	if coloring.RunsConcurrently(other, fn) {
		t.Errorf("a node looked up against an unrelated *callgraph.Graph instance must report false")
	}
}
