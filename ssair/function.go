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

// Package ssair adapts golang.org/x/tools/go/ssa to the ir package's
// boundary interfaces, and supplies the concrete sendability, isolation and
// alias oracles the translator needs.
package ssair

import (
	"golang.org/x/tools/go/ssa"

	"github.com/regioncheck/regioncheck/ir"
)

// Function wraps an *ssa.Function.
type Function struct {
	F *ssa.Function
}

var _ ir.Function = Function{}

// Name returns the function's qualified SSA name.
func (f Function) Name() string {
	return f.F.String()
}

// Blocks returns the function's basic blocks in their SSA declaration
// order; index 0 is always the entry block in go/ssa.
func (f Function) Blocks() []ir.Block {
	out := make([]ir.Block, 0, len(f.F.Blocks))
	for _, b := range f.F.Blocks {
		out = append(out, Block{B: b})
	}
	return out
}

// Params returns the function's formal parameters. go/ssa puts the
// receiver, if any, as Params[0]; we split it off into Self so translate
// doesn't need to know about Go's receiver convention.
func (f Function) Params() []ir.Value {
	params := f.F.Params
	if f.F.Signature.Recv() != nil && len(params) > 0 {
		params = params[1:]
	}
	out := make([]ir.Value, 0, len(params))
	for _, p := range params {
		out = append(out, Value{V: p})
	}
	return out
}

// Self returns the receiver, if f.F is a method.
func (f Function) Self() (ir.Value, bool) {
	if f.F.Signature.Recv() == nil || len(f.F.Params) == 0 {
		return nil, false
	}
	return Value{V: f.F.Params[0]}, true
}

// Block wraps an *ssa.BasicBlock.
type Block struct {
	B *ssa.BasicBlock
}

var _ ir.Block = Block{}

// Index returns the block's position in its function's Blocks slice.
func (b Block) Index() int { return b.B.Index }

// Instructions wraps every non-DebugRef instruction in the block.
func (b Block) Instructions() []ir.Instruction {
	out := make([]ir.Instruction, 0, len(b.B.Instrs))
	for _, instr := range b.B.Instrs {
		if _, ok := instr.(*ssa.DebugRef); ok {
			continue
		}
		out = append(out, Instruction{I: instr})
	}
	return out
}

// Preds wraps the block's predecessors.
func (b Block) Preds() []ir.Block {
	out := make([]ir.Block, 0, len(b.B.Preds))
	for _, p := range b.B.Preds {
		out = append(out, Block{B: p})
	}
	return out
}

// Succs wraps the block's successors.
func (b Block) Succs() []ir.Block {
	out := make([]ir.Block, 0, len(b.B.Succs))
	for _, s := range b.B.Succs {
		out = append(out, Block{B: s})
	}
	return out
}
