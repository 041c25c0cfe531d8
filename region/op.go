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

package region

import (
	"fmt"

	"github.com/regioncheck/regioncheck/ir"
)

// Kind tags the five abstract operations a Translator can emit. Op is
// modeled as a tagged sum type (not a hierarchy of op structs) precisely so
// that Apply, equality and ordering stay small, exhaustive switches.
type Kind int

const (
	AssignFresh Kind = iota
	Assign
	Merge
	Consume
	Require
)

func (k Kind) String() string {
	switch k {
	case AssignFresh:
		return "assign_fresh"
	case Assign:
		return "assign"
	case Merge:
		return "merge"
	case Consume:
		return "consume"
	case Require:
		return "require"
	default:
		return "unknown"
	}
}

// Op is an immutable abstract operation over a partition. A and B hold the
// operand IDs; which are meaningful depends on Kind:
//
//	AssignFresh(A)       Consume(A)       Require(A)
//	Assign(dst=A, src=B) Merge(A, B)
//
// Instr is the instruction this op was translated from. It is carried
// purely for diagnostics (source position, and as a site identity for the
// race tracer's accumulator) and never affects Partition semantics. Seq is
// a translation-order counter, also diagnostic-only metadata; it
// participates in Op's struct equality and is the first key of Less.
type Op struct {
	Kind  Kind
	A, B  ID
	Instr ir.Instruction
	Seq   int
}

// NewOp is the uniform constructor; B is ignored for single-operand kinds.
func NewOp(kind Kind, a, b ID, instr ir.Instruction, seq int) Op {
	return Op{Kind: kind, A: a, B: b, Instr: instr, Seq: seq}
}

func (op Op) String() string {
	switch op.Kind {
	case Assign:
		return fmt.Sprintf("assign(%d, %d)", op.A, op.B)
	case Merge:
		return fmt.Sprintf("merge(%d, %d)", op.A, op.B)
	default:
		return fmt.Sprintf("%s(%d)", op.Kind, op.A)
	}
}

// Less gives Op a total, stable ordering, keyed first by translation order
// so diagnostics come out in a deterministic sequence within one run.
func Less(a, b Op) bool {
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.A != b.A {
		return a.A < b.A
	}
	return a.B < b.B
}

// RequireFailFunc is invoked by Apply when a Require observes a consumed
// region.
type RequireFailFunc func(op Op, v ID)

// ConsumeNonConsumableFunc is invoked by Apply when a Consume touches a
// region containing one of the partition's non-consumable IDs (e.g. a
// formal argument region).
type ConsumeNonConsumableFunc func(op Op, v ID)

// Apply performs op's effect on p. When onRequireFail or
// onConsumeNonConsumable are non-nil, Apply additionally diagnoses:
//
//   - Require(v): if v's region is consumed, onRequireFail(op, v) is called.
//   - Consume(v): if any ID in nonConsumables lies in the same region as v
//     (checked against the partition state *before* the consume takes
//     effect), onConsumeNonConsumable(op, v) is called. The consume still
//     happens either way.
//
// Passing nil callbacks suppresses diagnosis entirely — the cheap form used
// during fixpoint iteration.
func (p *Partition) Apply(op Op, nonConsumables []ID, onRequireFail RequireFailFunc, onConsumeNonConsumable ConsumeNonConsumableFunc) {
	switch op.Kind {
	case AssignFresh:
		p.AssignFresh(op.A)
	case Assign:
		p.Assign(op.A, op.B)
	case Merge:
		p.Merge(op.A, op.B)
	case Consume:
		if onConsumeNonConsumable != nil {
			if leader, ok := p.Find(op.A); ok {
				for _, nc := range nonConsumables {
					if l2, ok2 := p.Find(nc); ok2 && l2 == leader {
						onConsumeNonConsumable(op, op.A)
						break
					}
				}
			}
		}
		p.Consume(op.A)
	case Require:
		if onRequireFail != nil && p.Require(op.A) {
			onRequireFail(op, op.A)
		}
	}
}
