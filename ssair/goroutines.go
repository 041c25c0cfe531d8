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
	"log"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/regioncheck/regioncheck/internal/formatutil"
	"github.com/regioncheck/regioncheck/internal/graphutil"
)

// Coloring records, for every callgraph node reachable from main, the set of
// `go` statement call-ids it may be running under (0 meaning "also reachable
// without going through any goroutine spawn"). It never feeds the
// isolation-crossing oracle's verdict directly — that decision is purely
// local to a call site — but the analyzer logs it at Debug level as
// corroborating context for why a given call was flagged as isolation
// crossing.
type Coloring struct {
	goCalls    map[*ssa.Go]uint32
	nodeColors map[*callgraph.Node]map[uint32]bool
}

// ColorGoroutines runs the goroutine-coloring fixpoint over cg: a first pass
// collects every `go` statement in prog, a second propagates, for each
// reachable function, the set of goroutine spawns it may execute under. The
// caller must pass the same cg to Coloring.RunsConcurrently later — the
// callgraph.Node identities recorded here are only meaningful against this
// exact graph instance, not a fresh one built from the same program.
func ColorGoroutines(cg *callgraph.Graph, prog *ssa.Program, logger *log.Logger) *Coloring {
	logRecursiveCycles(cg, logger)

	goCalls := map[*ssa.Go]uint32{}
	var nextID uint32 = 1
	for fn := range ssautil.AllFunctions(prog) {
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				g, ok := instr.(*ssa.Go)
				if !ok {
					continue
				}
				goCalls[g] = nextID
				nextID++
				if logger != nil {
					logger.Printf("go call: %s", formatutil.SanitizeRepr(g))
				}
			}
		}
	}

	vis := map[*callgraph.Node]map[uint32]bool{}
	var queue []*callgraph.Node
	for _, pkg := range ssautil.MainPackages(prog.AllPackages()) {
		if n := cg.Nodes[pkg.Func("main")]; n != nil && vis[n] == nil {
			vis[n] = map[uint32]bool{0: true}
			queue = append(queue, n)
		}
	}
	if cg.Root != nil && vis[cg.Root] == nil {
		vis[cg.Root] = map[uint32]bool{0: true}
		queue = append(queue, cg.Root)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range cur.Out {
			if e == nil || e.Callee == nil {
				continue
			}
			added := false
			if vis[e.Callee] == nil {
				vis[e.Callee] = map[uint32]bool{}
				added = true
			}
			if g, isGo := e.Site.(*ssa.Go); isGo {
				if !vis[e.Callee][goCalls[g]] {
					vis[e.Callee][goCalls[g]] = true
					added = true
				}
			} else {
				for id := range vis[cur] {
					if !vis[e.Callee][id] {
						vis[e.Callee][id] = true
						added = true
					}
				}
			}
			if added {
				queue = append(queue, e.Callee)
			}
		}
	}
	return &Coloring{goCalls: goCalls, nodeColors: vis}
}

// logRecursiveCycles logs, at Debug level, the count of elementary cycles
// in the static call graph: a spawned goroutine whose callee set loops back
// on itself may run an unbounded number of times, which the race tracer's
// per-block replay can't see directly. It also computes the call graph's
// strongly connected components, bottom-up, so a recursive cluster of
// functions is reported as one unit rather than as separately-numbered
// cycles.
func logRecursiveCycles(cg *callgraph.Graph, logger *log.Logger) {
	if logger == nil {
		return
	}
	it := graphutil.NewCallgraphIterator(cg)
	cycles := graphutil.FindAllElementaryCycles(it)
	if len(cycles) > 0 {
		logger.Printf("goroutines: call graph has %d recursive cycle(s)", len(cycles))
	}

	nodes := make([]*callgraph.Node, 0, len(cg.Nodes))
	for _, n := range cg.Nodes {
		nodes = append(nodes, n)
	}
	sccs := graphutil.StronglyConnectedComponents(nodes, func(n *callgraph.Node) []*callgraph.Node {
		var out []*callgraph.Node
		for _, e := range n.Out {
			if e != nil && e.Callee != nil {
				out = append(out, e.Callee)
			}
		}
		return out
	})
	recursive := 0
	for _, scc := range sccs {
		if len(scc) > 1 {
			recursive++
		}
	}
	if recursive > 0 {
		logger.Printf("goroutines: call graph has %d mutually-recursive cluster(s)", recursive)
	}
}

// RunsConcurrently reports whether fn may execute under at least one `go`
// statement, i.e. outside the main goroutine.
func (c *Coloring) RunsConcurrently(cg *callgraph.Graph, fn *ssa.Function) bool {
	node, ok := cg.Nodes[fn]
	if !ok {
		return false
	}
	colors := c.nodeColors[node]
	for id := range colors {
		if id != 0 {
			return true
		}
	}
	return false
}
