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
	"go/token"
	gotypes "go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/regioncheck/regioncheck/analysis/lang"
	"github.com/regioncheck/regioncheck/ir"
)

// Instruction wraps an ssa.Instruction and classifies it by naming the
// concrete ssa instruction types case by case, mapping each case onto one
// of ir.InstrKind's translation categories instead of a visitor callback.
type Instruction struct {
	I ssa.Instruction
}

var _ ir.Instruction = Instruction{}

// Kind classifies I per the translator's instruction-kind rules.
func (in Instruction) Kind() ir.InstrKind {
	switch in.I.(type) {
	case *ssa.Alloc, *ssa.MakeSlice, *ssa.MakeMap, *ssa.MakeChan, *ssa.MakeInterface,
		*ssa.MakeClosure:
		return ir.KindFreshProducer
	case *ssa.UnOp, *ssa.ChangeType, *ssa.ChangeInterface, *ssa.Convert,
		*ssa.SliceToArrayPointer, *ssa.Slice, *ssa.Field, *ssa.FieldAddr,
		*ssa.Index, *ssa.IndexAddr, *ssa.Lookup, *ssa.TypeAssert:
		return ir.KindProjection
	case *ssa.Store, *ssa.MapUpdate:
		return ir.KindStore
	case *ssa.Call, *ssa.Go, *ssa.Defer, *ssa.Send:
		return ir.KindCall
	case *ssa.Extract:
		return ir.KindTupleExtract
	case *ssa.Return:
		return ir.KindReturn
	case *ssa.DebugRef, *ssa.RunDefers, *ssa.Jump, *ssa.If, *ssa.Panic,
		*ssa.Select, *ssa.Range, *ssa.Next, *ssa.Phi, *ssa.BinOp:
		return ir.KindIgnored
	default:
		return ir.KindOther
	}
}

// Operands returns the values this instruction reads, in the order the
// translator's per-kind rules expect.
func (in Instruction) Operands() []ir.Value {
	switch instr := in.I.(type) {
	case *ssa.UnOp:
		return vals(instr.X)
	case *ssa.ChangeType:
		return vals(instr.X)
	case *ssa.ChangeInterface:
		return vals(instr.X)
	case *ssa.Convert:
		return vals(instr.X)
	case *ssa.SliceToArrayPointer:
		return vals(instr.X)
	case *ssa.Slice:
		return vals(instr.X)
	case *ssa.Field:
		return vals(instr.X)
	case *ssa.FieldAddr:
		return vals(instr.X)
	case *ssa.Index:
		return vals(instr.X, instr.Index)
	case *ssa.IndexAddr:
		return vals(instr.X, instr.Index)
	case *ssa.Lookup:
		return vals(instr.X, instr.Index)
	case *ssa.TypeAssert:
		return vals(instr.X)
	case *ssa.Store:
		return vals(instr.Addr, instr.Val)
	case *ssa.MapUpdate:
		return vals(instr.Map, instr.Key, instr.Value)
	case *ssa.Call:
		return callOperands(instr)
	case *ssa.Go:
		return callOperands(instr)
	case *ssa.Defer:
		return callOperands(instr)
	case *ssa.Send:
		return vals(instr.Chan, instr.X)
	case *ssa.Extract:
		return vals(instr.Tuple)
	case *ssa.Return:
		return vals(instr.Results...)
	case *ssa.MakeClosure:
		out := vals(instr.Fn)
		for _, b := range instr.Bindings {
			out = append(out, Value{V: b})
		}
		return out
	default:
		return nil
	}
}

// callOperands assembles a call-shaped instruction's operand list: the
// callee (or, per lang.GetArgs, the receiver for an interface-method
// invoke) first, then its arguments, matching the operand-0-is-callee
// convention the translator's apply rule relies on.
func callOperands(instr ssa.CallInstruction) []ir.Value {
	c := instr.Common()
	var out []ir.Value
	if !c.IsInvoke() {
		out = append(out, vals(c.Value)...)
	}
	for _, a := range lang.GetArgs(instr) {
		out = append(out, Value{V: a})
	}
	return out
}

// Results returns the values this instruction defines.
func (in Instruction) Results() []ir.Value {
	switch instr := in.I.(type) {
	case *ssa.Store, *ssa.MapUpdate, *ssa.Return, *ssa.Send, *ssa.Go, *ssa.Defer:
		return nil
	case *ssa.Extract:
		return vals(instr)
	case ssa.Value:
		return vals(instr)
	default:
		return nil
	}
}

// Pos reports I's source position for diagnostics.
func (in Instruction) Pos() token.Position {
	fn := in.I.Parent()
	if fn == nil || fn.Prog == nil {
		return token.Position{}
	}
	return fn.Prog.Fset.Position(in.I.Pos())
}

// AsCall reports whether I is call-shaped and, if so, whether it crosses an
// isolation boundary: `go` statements and channel sends always cross; a
// call or defer crosses when it is an interface-method invoke on an
// interface type carrying the Actor marker interface; everything else,
// including a direct method call on an Actor-marked type, does not.
func (in Instruction) AsCall() (ir.CallSite, bool) {
	switch instr := in.I.(type) {
	case *ssa.Go:
		return CallSite{crossing: true}, true
	case *ssa.Send:
		return CallSite{crossing: true}, true
	case *ssa.Defer:
		return CallSite{crossing: isActorCall(instr.Common())}, true
	case *ssa.Call:
		return CallSite{crossing: isActorCall(instr.Common())}, true
	default:
		return nil, false
	}
}

// CallSite is the concrete ir.CallSite for go/ssa call-shaped instructions.
type CallSite struct {
	crossing bool
}

var _ ir.CallSite = CallSite{}

// IsIsolationCrossing reports the verdict computed by Instruction.AsCall.
func (c CallSite) IsIsolationCrossing() bool { return c.crossing }

// isActorCall reports whether c is an interface-method invoke whose
// interface type implements the Actor marker interface
// (github.com/regioncheck/regioncheck/concurrency.Actor), the stand-in for
// Swift's actor-isolated methods. go/ssa sets c.Method only in invoke
// mode, so a static call is never reported.
func isActorCall(c *ssa.CallCommon) bool {
	if c == nil {
		return false
	}
	var recvType gotypes.Type
	if c.IsInvoke() {
		recvType = c.Value.Type()
	} else if c.Method != nil {
		if len(c.Args) == 0 {
			return false
		}
		recvType = c.Args[0].Type()
	} else {
		return false
	}
	return implementsMarker(recvType, actorMarkerName)
}

func vals(vs ...ssa.Value) []ir.Value {
	out := make([]ir.Value, 0, len(vs))
	for _, v := range vs {
		if v == nil {
			continue
		}
		out = append(out, Value{V: v})
	}
	return out
}
