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

// Package translate lowers a function's IR instructions into sequences of
// region.Op: canonicalization of IR values to a dense ID space, a capture
// pre-pass that excludes addresses passed to any call from being treated as
// uniquely identified, and a per-instruction-kind translation table.
package translate

import (
	"log"

	"github.com/regioncheck/regioncheck/ir"
	"github.com/regioncheck/regioncheck/region"
)

// Translator owns the canonical-value-to-ID map, the captured-address set,
// the oracles supplied by the host IR, and the translation-order counter. It
// is created once per function and is not safe for concurrent use — callers
// analyzing multiple functions in parallel must give each its own
// Translator.
type Translator struct {
	fn ir.Function

	types   ir.TypeOracle
	alias   ir.AliasOracle
	objects ir.UnderlyingObjectOracle

	// ids maps a canonicalized value to the ID minted for it. Canonical
	// values are compared by the ir.Value identity the oracles return, so
	// this works as a map key as long as the host IR returns the same
	// Value for the same storage across calls, which ssair guarantees.
	ids map[ir.Value]region.ID
	// order records IDs in the order they were minted.
	order []region.ID

	nextID region.ID
	seq    int

	// captured holds every address-typed value that appears as an operand
	// to some call-shaped instruction anywhere in the function. Populated
	// once by the capture pre-pass before any instruction is translated.
	captured map[ir.Value]bool
	prepassDone bool

	// argRegion is the single non-consumable representative ID, valid once
	// entryPartition has been computed at least once.
	argRegion   region.ID
	haveArgID   bool

	// blockOps caches translate_block's result per block index so repeated
	// calls are idempotent and cheap.
	blockOps map[int][]region.Op

	// UnhandledCount tracks how many instructions fell through to the safe
	// "no effect" default because their kind wasn't recognized.
	UnhandledCount int

	logger *log.Logger
}

// New creates a Translator for fn using the given oracles. logger may be nil,
// in which case unhandled-instruction warnings are dropped silently.
func New(fn ir.Function, types ir.TypeOracle, alias ir.AliasOracle, objects ir.UnderlyingObjectOracle, logger *log.Logger) *Translator {
	return &Translator{
		fn:       fn,
		types:    types,
		alias:    alias,
		objects:  objects,
		ids:      map[ir.Value]region.ID{},
		captured: map[ir.Value]bool{},
		blockOps: map[int][]region.Op{},
		logger:   logger,
	}
}

// isNonSendable applies the two overrides on top of the base oracle: raw
// pointer-like built-ins are always non-sendable (handled by the ssair
// oracle itself), and class-method/function references are always treated
// as sendable regardless of what the base oracle says.
func (t *Translator) isNonSendable(v ir.Value) bool {
	if isFuncLike(v.Type()) {
		return false
	}
	return t.types.IsNonSendable(v.Type())
}

// isFuncLike detects the method/function-value override through an
// optional IsFunc method on the ir.Type; concrete detection lives in the
// ssair adapter's Type wrapper, which is why this is a narrow,
// easily-swappable seam rather than a type switch on concrete ssa types
// (translate must stay IR-agnostic).
func isFuncLike(t ir.Type) bool {
	f, ok := t.(interface{ IsFunc() bool })
	return ok && f.IsFunc()
}

// canonicalize implements the simplify rule: address-typed values reduce to
// their access-storage root, everything else reduces to its underlying
// object.
func (t *Translator) canonicalize(v ir.Value) ir.Value {
	if storage, ok := t.alias.AccessStorage(v); ok {
		return storage.Root
	}
	return t.objects.UnderlyingObject(v)
}

// isUniquelyIdentified reports whether addr's canonical storage is
// uniquely identified by the alias oracle and was not captured by any call
// in the function. The capture pre-pass must have already run.
func (t *Translator) isUniquelyIdentified(addr ir.Value) bool {
	storage, ok := t.alias.AccessStorage(addr)
	if !ok || !storage.UniquelyIdentified {
		return false
	}
	return !t.captured[t.canonicalize(addr)]
}

// idFor mints (or reuses) the ID for v's canonical form, if v is
// non-sendable. Returns (0, false) for sendable values — callers must check
// ok before using the ID.
func (t *Translator) idFor(v ir.Value) (region.ID, bool) {
	if !t.isNonSendable(v) {
		return 0, false
	}
	canon := t.canonicalize(v)
	if id, ok := t.ids[canon]; ok {
		return id, true
	}
	id := t.nextID
	t.nextID++
	t.ids[canon] = id
	t.order = append(t.order, id)
	return id, true
}

// runCapturePass populates captured by scanning every call-shaped
// instruction's operands across the whole function, exactly once. It must
// run before any block is translated, per the Capture pre-pass design note.
func (t *Translator) runCapturePass() {
	if t.prepassDone {
		return
	}
	t.prepassDone = true
	for _, b := range t.fn.Blocks() {
		for _, instr := range b.Instructions() {
			if _, ok := instr.AsCall(); !ok {
				continue
			}
			for _, operand := range instr.Operands() {
				if _, ok := t.alias.AccessStorage(operand); ok {
					t.captured[t.canonicalize(operand)] = true
				}
			}
		}
	}
}

// EntryPartition returns the function's initial partition: every
// non-sendable formal parameter, including the receiver if any, unified
// into a single region.
func (t *Translator) EntryPartition() *region.Partition {
	t.runCapturePass()
	var ids []region.ID
	if self, ok := t.fn.Self(); ok {
		if id, ok := t.idFor(self); ok {
			ids = append(ids, id)
		}
	}
	for _, p := range t.fn.Params() {
		if id, ok := t.idFor(p); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		t.argRegion = ids[0]
		t.haveArgID = true
	}
	return region.Singleton(ids)
}

// NonConsumables returns the list of IDs that must never be consumed
// anywhere in the function: currently a singleton holding the arg region's
// representative. EntryPartition must be called first.
func (t *Translator) NonConsumables() []region.ID {
	if !t.haveArgID {
		return nil
	}
	return []region.ID{t.argRegion}
}

// TranslateBlock returns block's translated op sequence, computing and
// caching it on first call.
func (t *Translator) TranslateBlock(b ir.Block) []region.Op {
	t.runCapturePass()
	if ops, ok := t.blockOps[b.Index()]; ok {
		return ops
	}
	var ops []region.Op
	for _, instr := range b.Instructions() {
		ops = append(ops, t.translateInstruction(instr)...)
	}
	t.blockOps[b.Index()] = ops
	return ops
}

func (t *Translator) emit(kind region.Kind, a, b region.ID, instr ir.Instruction) region.Op {
	op := region.NewOp(kind, a, b, instr, t.seq)
	t.seq++
	return op
}

func (t *Translator) translateInstruction(instr ir.Instruction) []region.Op {
	switch instr.Kind() {
	case ir.KindFreshProducer:
		return t.translateFreshProducer(instr)
	case ir.KindProjection:
		return t.translateProjection(instr)
	case ir.KindStore:
		return t.translateStore(instr)
	case ir.KindCall:
		return t.translateApply(instr)
	case ir.KindTupleExtract:
		return t.translateTupleExtract(instr)
	case ir.KindReturn:
		return t.translateReturn(instr)
	case ir.KindIgnored:
		return nil
	default:
		t.UnhandledCount++
		if t.logger != nil {
			t.logger.Printf("translate: unhandled instruction kind at %s", instr.Pos())
		}
		return nil
	}
}

func (t *Translator) translateFreshProducer(instr ir.Instruction) []region.Op {
	results := instr.Results()
	if len(results) == 0 {
		return nil
	}
	id, ok := t.idFor(results[0])
	if !ok {
		return nil
	}
	return []region.Op{t.emit(region.AssignFresh, id, 0, instr)}
}

func (t *Translator) translateProjection(instr ir.Instruction) []region.Op {
	results := instr.Results()
	operands := instr.Operands()
	if len(results) == 0 || len(operands) == 0 {
		return nil
	}
	rid, ok := t.idFor(results[0])
	if !ok {
		return nil
	}
	oid, ok := t.idFor(operands[0])
	if !ok {
		// Operand is sendable but the result is not (e.g. unchecked cast):
		// the result has no prior identity to inherit.
		return []region.Op{t.emit(region.AssignFresh, rid, 0, instr)}
	}
	return []region.Op{t.emit(region.Assign, rid, oid, instr)}
}

func (t *Translator) translateStore(instr ir.Instruction) []region.Op {
	operands := instr.Operands()
	if len(operands) < 2 {
		return nil
	}
	dst, src := operands[0], operands[1]
	did, dok := t.idFor(dst)
	sid, sok := t.idFor(src)
	if !dok || !sok {
		return nil
	}
	if t.isUniquelyIdentified(dst) {
		return []region.Op{t.emit(region.Assign, did, sid, instr)}
	}
	return []region.Op{t.emit(region.Merge, did, sid, instr)}
}

// translateApply handles every call-shaped instruction: a crossing call
// consumes each of its non-sendable operands and produces a fresh result.
// A non-crossing call with one non-sendable operand requires it and assigns
// the result from it; with several, it merges each operand with the next
// and assigns the result from the first; with none, the result is fresh.
func (t *Translator) translateApply(instr ir.Instruction) []region.Op {
	site, _ := instr.AsCall()

	var ops []region.ID
	for _, operand := range instr.Operands() {
		if id, ok := t.idFor(operand); ok {
			ops = append(ops, id)
		}
	}
	var result region.ID
	haveResult := false
	if results := instr.Results(); len(results) > 0 {
		if id, ok := t.idFor(results[0]); ok {
			result, haveResult = id, true
		}
	}

	var out []region.Op
	if site != nil && site.IsIsolationCrossing() {
		for _, o := range ops {
			out = append(out, t.emit(region.Consume, o, 0, instr))
		}
		if haveResult {
			out = append(out, t.emit(region.AssignFresh, result, 0, instr))
		}
		return out
	}

	switch len(ops) {
	case 0:
		if haveResult {
			out = append(out, t.emit(region.AssignFresh, result, 0, instr))
		}
	case 1:
		out = append(out, t.emit(region.Require, ops[0], 0, instr))
		if haveResult {
			out = append(out, t.emit(region.Assign, result, ops[0], instr))
		}
	default:
		for i := 1; i < len(ops); i++ {
			out = append(out, t.emit(region.Merge, ops[i-1], ops[i], instr))
		}
		if haveResult {
			out = append(out, t.emit(region.Assign, result, ops[0], instr))
		}
	}
	return out
}

func (t *Translator) translateTupleExtract(instr ir.Instruction) []region.Op {
	operands := instr.Operands()
	if len(operands) == 0 {
		return nil
	}
	oid, ok := t.idFor(operands[0])
	if !ok {
		return nil
	}
	var out []region.Op
	for _, res := range instr.Results() {
		rid, ok := t.idFor(res)
		if !ok {
			continue
		}
		out = append(out, t.emit(region.Assign, rid, oid, instr))
	}
	return out
}

func (t *Translator) translateReturn(instr ir.Instruction) []region.Op {
	var out []region.Op
	for _, operand := range instr.Operands() {
		if id, ok := t.idFor(operand); ok {
			out = append(out, t.emit(region.Require, id, 0, instr))
		}
	}
	return out
}
