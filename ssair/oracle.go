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
	gotypes "go/types"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/regioncheck/regioncheck/analysis/lang"
	"github.com/regioncheck/regioncheck/analysis/ssafuncs"
	"github.com/regioncheck/regioncheck/ir"
)

// Oracles bundles the concrete TypeOracle, AliasOracle and
// UnderlyingObjectOracle that translate.Translator needs, backed by the
// same golang.org/x/tools/go/pointer Andersen-style points-to analysis the
// original dataflow package ran ahead of its taint analysis.
type Oracles struct {
	result *pointer.Result
}

var (
	_ ir.TypeOracle             = (*Oracles)(nil)
	_ ir.AliasOracle            = (*Oracles)(nil)
	_ ir.UnderlyingObjectOracle = (*Oracles)(nil)
)

// NewOracles runs the points-to analysis over prog, querying every operand
// of every instruction in a function accepted by functionFilter. This
// mirrors dataflow.DoPointerAnalysis: every address-typed value the
// translator might later ask AccessStorage about has to have been
// registered as a pointer.Config query or indirect query beforehand,
// because pointer.Analyze is a whole-program, one-shot analysis.
func NewOracles(prog *ssa.Program, functionFilter func(*ssa.Function) bool, buildCallGraph bool) (*Oracles, error) {
	cfg := &pointer.Config{
		Mains:           ssautil.MainPackages(prog.AllPackages()),
		Reflection:      false,
		BuildCallGraph:  buildCallGraph,
		Queries:         make(map[ssa.Value]struct{}),
		IndirectQueries: make(map[ssa.Value]struct{}),
	}

	for fn := range ssautil.AllFunctions(prog) {
		if !functionFilter(fn) {
			continue
		}
		ssafuncs.IterateInstructions(fn, func(instr ssa.Instruction) { addQuery(cfg, instr) })
	}

	result, err := pointer.Analyze(cfg)
	if err != nil {
		return nil, err
	}
	return &Oracles{result: result}, nil
}

func addQuery(cfg *pointer.Config, instr ssa.Instruction) {
	if instr == nil {
		return
	}
	for _, operand := range instr.Operands(nil) {
		if operand == nil || *operand == nil || (*operand).Type() == nil {
			continue
		}
		typ := (*operand).Type()
		if pointer.CanPoint(typ) {
			cfg.AddQuery(*operand)
		}
		addIndirectQuery(typ, *operand, cfg)
	}
}

func addIndirectQuery(typ gotypes.Type, operand ssa.Value, cfg *pointer.Config) {
	defer func() { recover() }() // Underlying() may panic on opaque types.
	under := typ.Underlying()
	if under == nil {
		return
	}
	if ptrType, ok := under.(*gotypes.Pointer); ok && pointer.CanPoint(ptrType.Elem()) {
		cfg.AddIndirectQuery(operand)
	}
}

// IsNonSendable implements ir.TypeOracle. A type marked concurrency.Sendable
// is always sendable; otherwise a type is non-sendable whenever it has
// reference semantics (pointer, unsafe.Pointer, channel, map, slice, or an
// interface that might box one), because handing such a value across an isolation
// boundary lets both sides keep mutating the same storage.
func (o *Oracles) IsNonSendable(t ir.Type) bool {
	tt, ok := t.(Type)
	if !ok {
		return true
	}
	if isSendableMarked(tt.T) {
		return false
	}
	return hasReferenceSemantics(tt.T, 0)
}

func hasReferenceSemantics(t gotypes.Type, depth int) bool {
	if depth > 8 || t == nil {
		return false
	}
	switch u := t.Underlying().(type) {
	case *gotypes.Pointer, *gotypes.Chan, *gotypes.Map, *gotypes.Slice, *gotypes.Interface:
		return true
	case *gotypes.Signature:
		return false
	case *gotypes.Basic:
		return u.Kind() == gotypes.UnsafePointer
	case *gotypes.Array:
		return hasReferenceSemantics(u.Elem(), depth+1)
	case *gotypes.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if hasReferenceSemantics(u.Field(i).Type(), depth+1) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// AccessStorage implements ir.AliasOracle. It canonicalizes addr to the base
// address that field/index projections were computed from, then consults
// the points-to result to decide whether that base may alias storage
// outside addr's own allocation site.
func (o *Oracles) AccessStorage(addr ir.Value) (ir.AccessStorage, bool) {
	v, ok := addr.(Value)
	if !ok {
		return ir.AccessStorage{}, false
	}
	if !isAddressType(v.V.Type()) {
		return ir.AccessStorage{}, false
	}
	root := addressRoot(v.V)
	return ir.AccessStorage{
		Root:               Value{V: root},
		UniquelyIdentified: o.isUniquelyIdentified(root),
	}, true
}

// UnderlyingObject implements ir.UnderlyingObjectOracle, reducing a
// non-address value to the object it was extracted, loaded or boxed from.
func (o *Oracles) UnderlyingObject(v ir.Value) ir.Value {
	val, ok := v.(Value)
	if !ok {
		return v
	}
	return Value{V: underlyingObject(val.V)}
}

func (o *Oracles) isUniquelyIdentified(root ssa.Value) bool {
	switch root.(type) {
	case *ssa.Alloc, *ssa.MakeSlice, *ssa.MakeMap, *ssa.MakeChan:
		// fall through to the points-to check below.
	default:
		return false
	}
	ptrs := lang.FindAllPointers(o.result, root)
	if len(ptrs) == 0 {
		return false
	}
	labels := ptrs[0].PointsTo().Labels()
	return len(labels) <= 1
}

func isAddressType(t gotypes.Type) bool {
	_, ok := t.Underlying().(*gotypes.Pointer)
	return ok
}

// addressRoot walks a chain of field/index/slice address projections back
// to the value that ultimately owns the storage.
func addressRoot(v ssa.Value) ssa.Value {
	for {
		switch x := v.(type) {
		case *ssa.FieldAddr:
			v = x.X
		case *ssa.IndexAddr:
			v = x.X
		default:
			return v
		}
	}
}

// underlyingObject walks a chain of loads, casts and boxing operations back
// to the object a non-address value was ultimately derived from. The
// load-of-field-address case is matched the way ssafuncs.MatchLoadField
// recognizes the y = &z.Field; x = *y idiom.
func underlyingObject(v ssa.Value) ssa.Value {
	for {
		if ok, z := ssafuncs.MatchLoadField(v); ok {
			v = z
			continue
		}
		switch x := v.(type) {
		case *ssa.UnOp:
			return v
		case *ssa.ChangeType:
			v = x.X
		case *ssa.Convert:
			v = x.X
		case *ssa.ChangeInterface:
			v = x.X
		case *ssa.MakeInterface:
			v = x.X
		case *ssa.Field:
			v = x.X
		case *ssa.Index:
			v = x.X
		default:
			return v
		}
	}
}
