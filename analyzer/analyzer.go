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

// Package analyzer wires translate, solve, race and diag into the
// top-level pass: one Translator/solve/Tracer run per function, gated on
// the deferred-sendable-checking feature flag, feeding a shared
// diag.Emitter.
package analyzer

import (
	"log"

	"github.com/regioncheck/regioncheck/block"
	"github.com/regioncheck/regioncheck/config"
	"github.com/regioncheck/regioncheck/diag"
	"github.com/regioncheck/regioncheck/ir"
	"github.com/regioncheck/regioncheck/race"
	"github.com/regioncheck/regioncheck/region"
	"github.com/regioncheck/regioncheck/solve"
	"github.com/regioncheck/regioncheck/translate"
)

// Result is the outcome of analyzing one function.
type Result struct {
	Function       string
	UnhandledCount int
}

// Analyzer runs the pass over functions one at a time, emitting diagnostics
// to a shared Emitter and optionally consulting a Coloring for
// informational Debug logging.
type Analyzer struct {
	Config  *config.Config
	Types   ir.TypeOracle
	Alias   ir.AliasOracle
	Objects ir.UnderlyingObjectOracle
	Emitter *diag.Emitter
	Logs    *config.LogGroup

	// RunsConcurrently, if set, reports whether fn may execute under a `go`
	// statement; it feeds only Debug-level logging, never the isolation
	// oracle itself — see the design note in DESIGN.md.
	RunsConcurrently func(fn ir.Function) bool
}

// AnalyzeFunction runs the full translate/solve/race pipeline over fn and
// emits every diagnostic it finds. It returns early, doing nothing, when
// the feature gate is off.
func (a *Analyzer) AnalyzeFunction(fn ir.Function) Result {
	if a.Config == nil || !a.Config.DeferredSendableChecking {
		return Result{Function: fn.Name()}
	}

	logger := a.debugLogger()
	tr := translate.New(fn, a.Types, a.Alias, a.Objects, logger)
	entry := tr.EntryPartition()
	nonConsumables := tr.NonConsumables()

	if a.RunsConcurrently != nil && logger != nil && a.RunsConcurrently(fn) {
		logger.Printf("analyzer: %s may run on a spawned goroutine", fn.Name())
	}

	states := map[int]*block.State{}
	for _, b := range fn.Blocks() {
		states[b.Index()] = block.New(b, tr.TranslateBlock(b))
	}

	solve.Run(fn, states, entry, nonConsumables)

	tracer := race.New(fn, states, logger)
	k := a.Config.MaxRacesPerConsume
	if k <= 0 {
		k = config.DefaultMaxRacesPerConsume
	}

	tracer.Trace(nonConsumables, func(op region.Op, v region.ID, b ir.Block) {
		a.Emitter.Emit(diag.Diagnostic{
			Kind:     diag.ArgRegionConsumed,
			Pos:      op.Instr.Pos(),
			Function: fn.Name(),
			Msg:      "consuming this value also consumes a caller-visible argument region",
		})
	})

	tracer.ForEachConsumeRequire(k, func(consume region.Op, shown []race.RequireSite, hidden int) {
		d := diag.Diagnostic{
			Kind:     diag.ConsumptionYieldsRace,
			Pos:      consume.Instr.Pos(),
			Function: fn.Name(),
			Msg:      "consuming this value here races with later uses of it",
			Hidden:   hidden,
		}
		for _, s := range shown {
			d.Notes = append(d.Notes, diag.Note{
				Pos: s.Op.Instr.Pos(),
				Msg: "used here after being consumed",
			})
		}
		a.Emitter.Emit(d)
	})

	return Result{Function: fn.Name(), UnhandledCount: tr.UnhandledCount}
}

func (a *Analyzer) debugLogger() *log.Logger {
	if a.Logs == nil {
		return nil
	}
	return a.Logs.GetDebug()
}
