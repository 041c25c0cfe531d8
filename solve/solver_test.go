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

package solve

import (
	"testing"

	"github.com/regioncheck/regioncheck/block"
	"github.com/regioncheck/regioncheck/internal/irfixture"
	"github.com/regioncheck/regioncheck/region"
)

// buildDiamond builds entry -> {b1, b2} -> join, each ir.Block owning the
// given ops.
func buildDiamond(entryOps, b1Ops, b2Ops, joinOps []region.Op) (*irfixture.Function, map[int]*block.State) {
	entry := &irfixture.Block{Idx: 0}
	b1 := &irfixture.Block{Idx: 1}
	b2 := &irfixture.Block{Idx: 2}
	join := &irfixture.Block{Idx: 3}
	irfixture.Link(entry, b1)
	irfixture.Link(entry, b2)
	irfixture.Link(b1, join)
	irfixture.Link(b2, join)

	fn := &irfixture.Function{NameV: "diamond", BlocksV: []*irfixture.Block{entry, b1, b2, join}}

	states := map[int]*block.State{
		0: block.New(entry, entryOps),
		1: block.New(b1, b1Ops),
		2: block.New(b2, b2Ops),
		3: block.New(join, joinOps),
	}
	return fn, states
}

func TestRunReachesFixpointAndJoinsAtMergePoint(t *testing.T) {
	const id region.ID = 10
	entryOps := []region.Op{region.NewOp(region.AssignFresh, id, 0, nil, 0)}
	b1Ops := []region.Op{region.NewOp(region.Consume, id, 0, nil, 1)}
	var b2Ops []region.Op
	var joinOps []region.Op

	fn, states := buildDiamond(entryOps, b1Ops, b2Ops, joinOps)
	Run(fn, states, region.New(), nil)

	joinEntry := states[3].Entry
	if !joinEntry.IsConsumed(id) {
		t.Fatalf("expected the join block's entry to be consumed, since one branch consumed it")
	}
	for idx, st := range states {
		if !st.Reached {
			t.Fatalf("block %d was never reached", idx)
		}
	}
}

func TestRunIsIdempotentOnceAtFixpoint(t *testing.T) {
	const id region.ID = 1
	entryOps := []region.Op{region.NewOp(region.AssignFresh, id, 0, nil, 0)}
	fn, states := buildDiamond(entryOps, nil, nil, nil)

	Run(fn, states, region.New(), nil)
	snapshot := map[int]*region.Partition{}
	for idx, st := range states {
		snapshot[idx] = st.Exit.Clone()
	}

	Run(fn, states, region.New(), nil)
	for idx, st := range states {
		if !region.Equals(snapshot[idx], st.Exit) {
			t.Fatalf("block %d's exit changed on a second Run at fixpoint", idx)
		}
	}
}

func TestRunHandlesUnreachableBlock(t *testing.T) {
	entry := &irfixture.Block{Idx: 0}
	unreachable := &irfixture.Block{Idx: 1}
	fn := &irfixture.Function{NameV: "f", BlocksV: []*irfixture.Block{entry, unreachable}}
	states := map[int]*block.State{
		0: block.New(entry, nil),
		1: block.New(unreachable, nil),
	}

	Run(fn, states, region.New(), nil)

	if !states[0].Reached {
		t.Fatalf("entry block must be reached")
	}
	if states[1].Reached {
		t.Fatalf("a block with no predecessors and not the entry must stay unreached")
	}
}

func TestRunEmptyFunctionIsNoOp(t *testing.T) {
	fn := &irfixture.Function{NameV: "empty"}
	states := map[int]*block.State{}
	// Must not panic on a function with no blocks.
	Run(fn, states, region.New(), nil)
}
