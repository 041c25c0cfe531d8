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

// Package ir declares the boundary between the region analyzer and whatever
// compiler IR it is embedded in. The analyzer (region, translate, block,
// solve, race) depends only on these interfaces, never on a concrete
// compiler; the ssair package is one concrete adapter among possibly many.
package ir

import "go/token"

// Function is a single unit of analysis: a control-flow graph of Blocks,
// formal parameters, and an optional receiver.
type Function interface {
	// Name is used only for diagnostics and logging.
	Name() string

	// Blocks returns the function's basic blocks in a stable, deterministic
	// order. Index 0 must be the entry block.
	Blocks() []Block

	// Params returns the function's formal parameters, in declaration order.
	// The receiver, if any, is NOT included; see Self.
	Params() []Value

	// Self returns the receiver of a method, or (nil, false) for a
	// free function.
	Self() (Value, bool)
}

// Block is a basic block: a straight-line sequence of Instructions with a
// single entry and the control-flow edges leaving its last instruction.
type Block interface {
	// Index is the block's position in Function.Blocks(); used as a stable
	// identity for maps keyed by block.
	Index() int

	Instructions() []Instruction

	Preds() []Block
	Succs() []Block
}

// InstrKind classifies an Instruction into the categories the translator
// assigns distinct translation rules to.
type InstrKind int

const (
	// KindOther is the safe default: unhandled and it is a no-op transfer
	// function.
	KindOther InstrKind = iota
	// KindFreshProducer allocates or materializes a value with no
	// meaningful prior identity (allocation, literal, extraction from a
	// sendable carrier).
	KindFreshProducer
	// KindProjection reinterprets or projects a single operand (borrow,
	// load, copy, address conversion, unchecked cast, index, element-addr).
	KindProjection
	// KindStore writes one operand into the storage addressed by another.
	KindStore
	// KindCall models apply/try-apply/partial-apply/builtin calls, `go`
	// statements and channel sends, anything that may cross an isolation
	// boundary.
	KindCall
	// KindTupleExtract destructures one element out of a tuple-typed value.
	KindTupleExtract
	// KindReturn returns values from the function.
	KindReturn
	// KindIgnored is the explicit allow-list: cleanup, debug, lifetime-end,
	// metatype, hop-to-executor and similar instructions with no dataflow
	// effect.
	KindIgnored
)

// Instruction is a single IR instruction.
type Instruction interface {
	Kind() InstrKind

	// Operands returns the values read by this instruction, in a stable
	// order specific to the instruction (e.g. for KindStore, operand 0 is
	// the address and operand 1 is the stored value; for KindCall, operand
	// 0 is normally the callee, or the receiver for an interface-method
	// call, followed by the arguments).
	Operands() []Value

	// Results returns the values defined by this instruction. Most
	// instructions define exactly one (or zero, for stores/returns).
	// KindTupleExtract may define several.
	Results() []Value

	// Pos is used only to annotate diagnostics.
	Pos() token.Position

	// AsCall returns (self, true) when this instruction is call-shaped
	// (Kind() == KindCall) and additionally tells the translator whether the
	// call crosses an isolation boundary. Non-call instructions return
	// (nil, false).
	AsCall() (CallSite, bool)
}

// CallSite is the extra information the translator needs for a call-shaped
// instruction.
type CallSite interface {
	// IsIsolationCrossing reports whether this call executes in a different
	// concurrency domain than its caller.
	IsIsolationCrossing() bool
}

// Value is an IR value: an operand or result of some Instruction, or a
// function parameter/receiver/free variable.
type Value interface {
	// Type is used by the sendability oracle.
	Type() Type

	// String is used only for diagnostics.
	String() string
}

// Type is the minimal type surface the analyzer's oracles need.
type Type interface {
	String() string
}

// TypeOracle decides whether a value of type t is non-sendable — i.e.
// unsafe to transfer across an isolation boundary without losing exclusive
// access to it.
type TypeOracle interface {
	IsNonSendable(t Type) bool
}

// AccessStorage is the result of the alias oracle for a single address.
type AccessStorage struct {
	// Root is the canonical representative of the address's storage.
	Root Value
	// UniquelyIdentified is true when the IR's alias analysis guarantees
	// this storage is not aliased by anything outside its defining scope.
	UniquelyIdentified bool
}

// AliasOracle computes the access-storage root of address-typed values, used
// by the translator's canonicalization step.
type AliasOracle interface {
	// AccessStorage returns the storage an address-typed value ultimately
	// refers to, or (zero, false) if addr is not an address.
	AccessStorage(addr Value) (AccessStorage, bool)
}

// UnderlyingObjectOracle reduces a non-address value to the object it was
// ultimately extracted or boxed from, per the simplify rule.
type UnderlyingObjectOracle interface {
	UnderlyingObject(v Value) Value
}
