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

// Package solve implements a classical worklist fixpoint algorithm: entry
// partitions are the join of reached predecessors' exit partitions, blocks
// are re-processed until no exit partition changes.
package solve

import (
	"github.com/regioncheck/regioncheck/block"
	"github.com/regioncheck/regioncheck/ir"
	"github.com/regioncheck/regioncheck/region"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Run computes the fixpoint over states, which must contain one block.State
// per block of fn, indexed by block index, with every State already holding
// its translated Ops. entry is the function's entry partition and
// nonConsumables the IDs that must never be consumed; both come from a
// translate.Translator. Run mutates states in place.
//
// Blocks are visited in a deterministic topological order of the
// function's control-flow graph (computed via gonum's graph/topo), which
// gives the solver's diagnostic output a stable ordering independent of any
// particular host IR's own block numbering; blocks on a CFG cycle, which a
// topological sort cannot order, follow in index order.
func Run(fn ir.Function, states map[int]*block.State, entry *region.Partition, nonConsumables []region.ID) {
	blocks := fn.Blocks()
	if len(blocks) == 0 {
		return
	}

	order := reversePostorder(blocks)

	entryBlock := blocks[0]
	entryState := states[entryBlock.Index()]
	entryState.Entry = entry
	entryState.NeedsUpdate = true

	needsUpdate := make(map[int]bool, len(blocks))
	for _, idx := range order {
		needsUpdate[idx] = states[idx].NeedsUpdate
	}

	for anyPending(needsUpdate) {
		for _, idx := range order {
			if !needsUpdate[idx] {
				continue
			}
			needsUpdate[idx] = false
			st := states[idx]
			st.NeedsUpdate = false
			st.Reached = true

			b := blockByIndex(blocks, idx)
			newEntry, havePred := joinReachedPreds(b, states)
			if havePred && region.Equals(newEntry, st.Entry) {
				continue
			}
			if havePred {
				st.Entry = newEntry
			}
			if st.RecomputeExitFromEntry(nonConsumables) {
				for _, succ := range b.Succs() {
					needsUpdate[succ.Index()] = true
					states[succ.Index()].NeedsUpdate = true
				}
			}
		}
	}
}

func anyPending(m map[int]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

func blockByIndex(blocks []ir.Block, idx int) ir.Block {
	for _, b := range blocks {
		if b.Index() == idx {
			return b
		}
	}
	return nil
}

// joinReachedPreds returns the join of the exit partitions of every
// predecessor of b that has already been reached at least once, and whether
// there was at least one such predecessor.
func joinReachedPreds(b ir.Block, states map[int]*block.State) (*region.Partition, bool) {
	var acc *region.Partition
	have := false
	for _, p := range b.Preds() {
		ps := states[p.Index()]
		if !ps.Reached {
			continue
		}
		if !have {
			acc = ps.Exit.Clone()
			have = true
			continue
		}
		acc = region.Join(acc, ps.Exit)
	}
	return acc, have
}

// reversePostorder returns every block index exactly once, in the
// deterministic topological order topo.SortStabilized gives the function's
// control-flow graph. Self-loops are left out of that graph. Blocks in a
// cyclic component, which the sort cannot order and marks with a nil
// entry, are appended afterward in declaration order.
func reversePostorder(blocks []ir.Block) []int {
	g := simple.NewDirectedGraph()
	for _, b := range blocks {
		g.AddNode(simpleNode(b.Index()))
	}
	for _, b := range blocks {
		for _, s := range b.Succs() {
			if s.Index() == b.Index() || g.Node(int64(s.Index())) == nil {
				continue
			}
			g.SetEdge(simple.Edge{F: simpleNode(b.Index()), T: simpleNode(s.Index())})
		}
	}
	sorted, _ := topo.SortStabilized(g, nil)
	order := make([]int, 0, len(blocks))
	placed := make(map[int]bool, len(blocks))
	for _, n := range sorted {
		if n == nil {
			continue
		}
		order = append(order, int(n.ID()))
		placed[int(n.ID())] = true
	}
	for _, b := range blocks {
		if !placed[b.Index()] {
			order = append(order, b.Index())
		}
	}
	return order
}

type simpleNode int64

func (n simpleNode) ID() int64 { return int64(n) }

var _ graph.Node = simpleNode(0)
