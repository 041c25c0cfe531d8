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

// Package race implements Tracer: after the solver reaches a fixpoint, it
// attributes every failing Require to the Consume op(s) responsible,
// walking backward through the CFG with sentinel-before-recursion
// memoization to guarantee termination on cycles.
package race

import (
	"log"
	"sort"

	"github.com/regioncheck/regioncheck/block"
	"github.com/regioncheck/regioncheck/ir"
	"github.com/regioncheck/regioncheck/region"
	yourbasicgraph "github.com/yourbasic/graph"
)

// ConsumedReason is a multimap distance -> the Consume ops at that distance
// that explain why a value was found consumed.
type ConsumedReason map[int][]region.Op

func (r ConsumedReason) add(distance int, op region.Op) {
	r[distance] = append(r[distance], op)
}

func (r ConsumedReason) merge(other ConsumedReason, extra int) {
	for d, ops := range other {
		r[d+extra] = append(r[d+extra], ops...)
	}
}

func (r ConsumedReason) empty() bool {
	return len(r) == 0
}

// localReasonKind classifies find_local_consumed_reason's outcome.
type localReasonKind int

const (
	localNone localReasonKind = iota
	localConsume
	localNonConsume
	nonLocal
)

type localResult struct {
	kind localReasonKind
	op   region.Op
}

// requireRecord pairs a failing Require op with the block it occurred in, so
// the accumulator can report back the site.
type requireRecord struct {
	op    region.Op
	block ir.Block
}

// Tracer owns the memoization table and the function-wide state it needs to
// attribute races after the solver's fixpoint.
type Tracer struct {
	fn     ir.Function
	states map[int]*block.State

	// entryMemo memoizes find_consumed_at_entry_reason by (block index, id).
	entryMemo map[entryKey]ConsumedReason

	// consumeToRequires accumulates, for every distinct Consume op, the
	// ordered set of (Require, distance) pairs it explains.
	consumeToRequires map[region.Op][]requireDistance

	// consumeOrder preserves first-seen order of Consume ops, so emission
	// is in deterministic insertion order.
	consumeOrder []region.Op
	seenConsume  map[region.Op]bool

	logger *log.Logger
}

type entryKey struct {
	block int
	id    region.ID
}

type requireDistance struct {
	require  region.Op
	block    ir.Block
	distance int
}

// New creates a Tracer over a solved function: states must already be at
// fixpoint (block.State.Reached/Exit/Entry final).
func New(fn ir.Function, states map[int]*block.State, logger *log.Logger) *Tracer {
	return &Tracer{
		fn:                fn,
		states:            states,
		entryMemo:         map[entryKey]ConsumedReason{},
		consumeToRequires: map[region.Op][]requireDistance{},
		seenConsume:       map[region.Op]bool{},
		logger:            logger,
	}
}

// Trace replays every reached block's ops with diagnosing callbacks,
// attributing every Require-of-consumed and reporting every
// Consume-of-non-consumable it finds. Before that it logs one line (at
// Debug level, informational only) when a topological sort finds a cycle
// in the function's block graph.
func (t *Tracer) Trace(nonConsumables []region.ID, onNonConsumable func(op region.Op, v region.ID, b ir.Block)) {
	t.logBackEdges()

	for _, b := range t.fn.Blocks() {
		st := t.states[b.Index()]
		if !st.Reached {
			continue
		}
		st.Diagnose(nonConsumables,
			func(op region.Op, v region.ID) {
				reason := t.findConsumedAtOpReason(b, v, op)
				t.recordRequire(reason, op, b)
			},
			func(op region.Op, v region.ID) {
				if onNonConsumable != nil {
					onNonConsumable(op, v, b)
				}
			},
		)
	}
}

func (t *Tracer) recordRequire(reason ConsumedReason, requireOp region.Op, b ir.Block) {
	distances := make([]int, 0, len(reason))
	for d := range reason {
		distances = append(distances, d)
	}
	sort.Ints(distances)
	for _, d := range distances {
		for _, consumeOp := range reason[d] {
			if !t.seenConsume[consumeOp] {
				t.seenConsume[consumeOp] = true
				t.consumeOrder = append(t.consumeOrder, consumeOp)
			}
			t.consumeToRequires[consumeOp] = append(t.consumeToRequires[consumeOp], requireDistance{
				require:  requireOp,
				block:    b,
				distance: d,
			})
		}
	}
}

// findConsumedAtOpReason implements find_consumed_at_op_reason: find the
// local reason within op's own block, recursing to predecessors for the
// NonLocal case.
func (t *Tracer) findConsumedAtOpReason(b ir.Block, v region.ID, target region.Op) ConsumedReason {
	local := t.findLocalConsumedReason(b, v, &target)
	switch local.kind {
	case localConsume:
		out := ConsumedReason{}
		out.add(0, local.op)
		return out
	case localNonConsume, localNone:
		return ConsumedReason{}
	default: // nonLocal
		return t.findConsumedAtEntryReason(b, v)
	}
}

// findLocalConsumedReason implements find_local_consumed_reason.
func (t *Tracer) findLocalConsumedReason(b ir.Block, v region.ID, targetOp *region.Op) localResult {
	st := t.states[b.Index()]
	working := st.Entry.Clone()

	if working.IsConsumed(v) {
		working.AssignFresh(v)
	}

	result := localResult{kind: localNone}

	st.ForEachOp(func(op region.Op) bool {
		if targetOp != nil && op == *targetOp {
			return false
		}
		wasConsumed := working.IsConsumed(v)
		working.Apply(op, nil, nil, nil)
		nowConsumed := working.IsConsumed(v)

		if !wasConsumed && nowConsumed {
			if op.Kind == region.Consume {
				result = localResult{kind: localConsume, op: op}
			} else {
				result = localResult{kind: localNonConsume, op: op}
			}
		} else if wasConsumed && !nowConsumed {
			result = localResult{kind: localNone}
		}
		return true
	})

	if result.kind == localNone {
		if st.Entry.IsConsumed(v) {
			return localResult{kind: nonLocal}
		}
		return localResult{kind: localNone}
	}
	return result
}

// findConsumedAtEntryReason implements find_consumed_at_entry_reason, with
// sentinel-before-recursion memoization to terminate on CFG cycles.
func (t *Tracer) findConsumedAtEntryReason(b ir.Block, v region.ID) ConsumedReason {
	key := entryKey{block: b.Index(), id: v}
	if memo, ok := t.entryMemo[key]; ok {
		return memo
	}
	sentinel := ConsumedReason{}
	t.entryMemo[key] = sentinel

	result := ConsumedReason{}
	entry := t.states[b.Index()].Entry

	// Step 1: direct predecessor consumes of u, where u is consumed at p's
	// exit and tracked at b's entry.
	directlyConsumedAtExit := map[region.ID][]ir.Block{}
	for _, p := range b.Preds() {
		ps := t.states[p.Index()]
		if !ps.Reached {
			continue
		}
		for _, u := range ps.Exit.ConsumedIDs() {
			if _, tracked := entry.Find(u); tracked {
				directlyConsumedAtExit[u] = append(directlyConsumedAtExit[u], p)
			}
		}
	}

	// Step 2: build the single-step-join graph from non-consumed regions at
	// each predecessor's exit.
	joinGraph := map[region.ID][]region.ID{}
	for _, p := range b.Preds() {
		ps := t.states[p.Index()]
		if !ps.Reached {
			continue
		}
		for _, r := range ps.Exit.Regions() {
			if r.Consumed {
				continue
			}
			for i := 0; i < len(r.Members); i++ {
				for j := 0; j < len(r.Members); j++ {
					if i == j {
						continue
					}
					f, s := r.Members[i], r.Members[j]
					if _, ok := entry.Find(f); !ok {
						continue
					}
					if _, ok := entry.Find(s); !ok {
						continue
					}
					joinGraph[f] = append(joinGraph[f], s)
				}
			}
		}
	}

	// Step 3: BFS from v over joinGraph, recording distances.
	distances := map[region.ID]int{v: 0}
	queue := []region.ID{v}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range joinGraph[cur] {
			if _, seen := distances[next]; seen {
				continue
			}
			distances[next] = distances[cur] + 1
			queue = append(queue, next)
		}
	}

	// Step 4: for each (u, distance), recurse into every predecessor that
	// consumed u at its exit.
	us := make([]region.ID, 0, len(distances))
	for u := range distances {
		us = append(us, u)
	}
	sort.Slice(us, func(i, j int) bool { return us[i] < us[j] })

	for _, u := range us {
		d := distances[u]
		for _, p := range directlyConsumedAtExit[u] {
			sub := t.findAndAddConsumedReasons(p, u)
			result.merge(sub, d)
		}
	}

	t.entryMemo[key] = result
	return result
}

// findAndAddConsumedReasons finds the reason u was consumed by the time it
// left block p, attributing either a local Consume or a further non-local
// recursion into p's own predecessors.
func (t *Tracer) findAndAddConsumedReasons(p ir.Block, u region.ID) ConsumedReason {
	local := t.findLocalConsumedReason(p, u, nil)
	switch local.kind {
	case localConsume:
		out := ConsumedReason{}
		out.add(0, local.op)
		return out
	case nonLocal:
		return t.findConsumedAtEntryReason(p, u)
	default:
		return ConsumedReason{}
	}
}

// logBackEdges checks, with a topological sort, whether the function's
// block graph contains a cycle and, if so, logs one line at Debug level;
// this never changes analysis results, it only flags to an operator that
// the attribution walk may revisit a block.
func (t *Tracer) logBackEdges() {
	if t.logger == nil {
		return
	}
	blocks := t.fn.Blocks()
	if len(blocks) == 0 {
		return
	}
	g := yourbasicgraph.New(len(blocks))
	for _, b := range blocks {
		for _, s := range b.Succs() {
			g.Add(b.Index(), s.Index())
		}
	}
	if _, acyclic := yourbasicgraph.TopSort(g); !acyclic {
		t.logger.Printf("race: %s contains a CFG cycle; attribution will revisit blocks", t.fn.Name())
	}
}

// RequireSite is one require-side entry in a ConsumptionYieldsRace group.
type RequireSite struct {
	Op       region.Op
	Block    ir.Block
	Distance int
}

// ForEachConsumeRequire implements for_each_consume_require(k, ...): it
// iterates every Consume op that explains at least one failing Require, in
// first-seen order, reporting up to k RequireSites (ordered ascending by
// distance then by op translation order) and the count of any remaining,
// hidden ones.
func (t *Tracer) ForEachConsumeRequire(k int, onConsume func(consume region.Op, shown []RequireSite, hidden int)) {
	for _, consumeOp := range t.consumeOrder {
		sites := t.consumeToRequires[consumeOp]
		sorted := make([]requireDistance, len(sites))
		copy(sorted, sites)
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].distance != sorted[j].distance {
				return sorted[i].distance < sorted[j].distance
			}
			return region.Less(sorted[i].require, sorted[j].require)
		})
		shownN := len(sorted)
		if shownN > k {
			shownN = k
		}
		shown := make([]RequireSite, 0, shownN)
		for _, rd := range sorted[:shownN] {
			shown = append(shown, RequireSite{Op: rd.require, Block: rd.block, Distance: rd.distance})
		}
		onConsume(consumeOp, shown, len(sorted)-shownN)
	}
}
