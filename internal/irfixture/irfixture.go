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

// Package irfixture is a hand-rolled, minimal implementation of the ir
// package's boundary interfaces, used by every analyzer-core package's
// tests to build small functions without compiling real Go source.
package irfixture

import (
	"go/token"

	"github.com/regioncheck/regioncheck/ir"
)

// Type is a named, possibly-sendable fixture type.
type Type struct {
	Name     string
	Sendable bool
}

var _ ir.Type = Type{}

func (t Type) String() string { return t.Name }

// NonSendable and Sendable are the two Types most fixtures need.
var (
	NonSendable = Type{Name: "NonSendable", Sendable: false}
	SendableT   = Type{Name: "Sendable", Sendable: true}
)

// Value is a fixture IR value. For address-typed values, Root points at the
// value AccessStorage should report as the canonical storage (nil means
// "self is the root"), and Unique is that storage's UniquelyIdentified bit.
type Value struct {
	Name   string
	Typ    Type
	IsAddr bool
	Root   *Value
	Unique bool
}

var _ ir.Value = &Value{}

func (v *Value) Type() ir.Type { return v.Typ }
func (v *Value) String() string { return v.Name }

// V is a terse constructor for a non-address value of typ.
func V(name string, typ Type) *Value { return &Value{Name: name, Typ: typ} }

// Addr is a terse constructor for a uniquely-identified address rooted at
// itself — the common case, e.g. a fresh local's own storage.
func Addr(name string, typ Type) *Value {
	return &Value{Name: name, Typ: typ, IsAddr: true, Unique: true}
}

// AddrOf constructs an address-typed value whose canonical storage is root
// and whose uniqueness is root's own.
func AddrOf(name string, typ Type, root *Value) *Value {
	return &Value{Name: name, Typ: typ, IsAddr: true, Root: root, Unique: root.Unique}
}

// Oracle is a fixture TypeOracle + AliasOracle + UnderlyingObjectOracle:
// sendability comes straight from the Value's Type, address canonicalization
// follows the explicit Root links fixtures set up, and UnderlyingObject is
// the identity (fixtures build already-canonical values).
type Oracle struct{}

var (
	_ ir.TypeOracle             = Oracle{}
	_ ir.AliasOracle            = Oracle{}
	_ ir.UnderlyingObjectOracle = Oracle{}
)

func (Oracle) IsNonSendable(t ir.Type) bool {
	typ, ok := t.(Type)
	if !ok {
		return true
	}
	return !typ.Sendable
}

func (Oracle) AccessStorage(addr ir.Value) (ir.AccessStorage, bool) {
	v, ok := addr.(*Value)
	if !ok || !v.IsAddr {
		return ir.AccessStorage{}, false
	}
	root := v
	if v.Root != nil {
		root = v.Root
	}
	return ir.AccessStorage{Root: root, UniquelyIdentified: root.Unique}, true
}

func (Oracle) UnderlyingObject(v ir.Value) ir.Value { return v }

// CallSite is the fixture ir.CallSite.
type CallSite struct{ Crossing bool }

func (c CallSite) IsIsolationCrossing() bool { return c.Crossing }

// Instruction is a fixture ir.Instruction with every field set directly by
// the test, rather than classified from a concrete compiler instruction.
type Instruction struct {
	KindV    ir.InstrKind
	Ops      []ir.Value
	Res      []ir.Value
	CallSite *CallSite
	PosV     token.Position
}

var _ ir.Instruction = &Instruction{}

func (i *Instruction) Kind() ir.InstrKind   { return i.KindV }
func (i *Instruction) Operands() []ir.Value { return i.Ops }
func (i *Instruction) Results() []ir.Value  { return i.Res }
func (i *Instruction) Pos() token.Position  { return i.PosV }

func (i *Instruction) AsCall() (ir.CallSite, bool) {
	if i.CallSite == nil {
		return nil, false
	}
	return *i.CallSite, true
}

// Block is a fixture ir.Block with explicit, mutually-registered Preds/Succs.
type Block struct {
	Idx    int
	Instrs []ir.Instruction
	PredsV []*Block
	SuccsV []*Block
}

var _ ir.Block = &Block{}

func (b *Block) Index() int                    { return b.Idx }
func (b *Block) Instructions() []ir.Instruction { return b.Instrs }

func (b *Block) Preds() []ir.Block {
	out := make([]ir.Block, 0, len(b.PredsV))
	for _, p := range b.PredsV {
		out = append(out, p)
	}
	return out
}

func (b *Block) Succs() []ir.Block {
	out := make([]ir.Block, 0, len(b.SuccsV))
	for _, s := range b.SuccsV {
		out = append(out, s)
	}
	return out
}

// Link registers a directed edge from -> to in both directions.
func Link(from, to *Block) {
	from.SuccsV = append(from.SuccsV, to)
	to.PredsV = append(to.PredsV, from)
}

// Function is a fixture ir.Function.
type Function struct {
	NameV    string
	BlocksV  []*Block
	ParamsV  []ir.Value
	SelfV    ir.Value
	HaveSelf bool
}

var _ ir.Function = &Function{}

func (f *Function) Name() string { return f.NameV }

func (f *Function) Blocks() []ir.Block {
	out := make([]ir.Block, 0, len(f.BlocksV))
	for _, b := range f.BlocksV {
		out = append(out, b)
	}
	return out
}

func (f *Function) Params() []ir.Value { return f.ParamsV }

func (f *Function) Self() (ir.Value, bool) { return f.SelfV, f.HaveSelf }
