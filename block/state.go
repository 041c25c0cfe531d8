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

// Package block implements the per-basic-block dataflow record the solver
// iterates to a fixpoint.
package block

import (
	"github.com/regioncheck/regioncheck/ir"
	"github.com/regioncheck/regioncheck/region"
)

// State owns one basic block's entry and exit partitions, a lazily
// populated, immutable op sequence, and the two flags the solver uses to
// drive its worklist. A State is created once per block at analysis start
// and mutated only by the solver; the race tracer only reads it after the
// fixpoint is reached.
type State struct {
	Block ir.Block

	// Ops is the block's translated operation sequence. It is set once
	// (by the caller, from translate.Translator.TranslateBlock) and never
	// mutated afterward.
	Ops []region.Op

	// Entry and Exit are mutated only by the solver during the fixpoint
	// computation.
	Entry *region.Partition
	Exit  *region.Partition

	// Reached is true once this block's entry has been computed from at
	// least one predecessor (or it is the function's entry block).
	Reached bool

	// NeedsUpdate drives the solver's worklist: set whenever this block's
	// exit may have changed since its successors last observed it.
	NeedsUpdate bool
}

// New creates a State for block with bottom (empty) entry/exit partitions.
func New(b ir.Block, ops []region.Op) *State {
	return &State{
		Block: b,
		Ops:   ops,
		Entry: region.New(),
		Exit:  region.New(),
	}
}

// RecomputeExitFromEntry replays Ops over a working copy of Entry with no
// failure callbacks, sets Exit to the result, and reports whether Exit
// changed.
func (s *State) RecomputeExitFromEntry(nonConsumables []region.ID) bool {
	working := s.Entry.Clone()
	for _, op := range s.Ops {
		working.Apply(op, nonConsumables, nil, nil)
	}
	changed := !region.Equals(working, s.Exit)
	s.Exit = working
	return changed
}

// Diagnose replays Ops over a working copy of Entry with failure callbacks
// active. It never mutates Entry or Exit; diagnosis happens strictly after
// the fixpoint and must not perturb solver state.
func (s *State) Diagnose(nonConsumables []region.ID, onRequireFail region.RequireFailFunc, onConsumeNonConsumable region.ConsumeNonConsumableFunc) {
	working := s.Entry.Clone()
	for _, op := range s.Ops {
		working.Apply(op, nonConsumables, onRequireFail, onConsumeNonConsumable)
	}
}

// ForEachOp performs a read-only traversal of Ops, short-circuiting as soon
// as f returns false.
func (s *State) ForEachOp(f func(region.Op) bool) {
	for _, op := range s.Ops {
		if !f(op) {
			return
		}
	}
}
