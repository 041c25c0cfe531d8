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

package region

import (
	"slices"

	"golang.org/x/exp/maps"
)

// Partition is a disjoint-set-like relation over all IDs ever introduced in
// a function, plus a bitmap of consumed region labels. Unlike a classic
// union-find forest, it supports detaching a single ID from its region
// without disturbing the rest of that region (needed by AssignFresh and
// Assign, which discard only the target's own prior membership) by eagerly
// keeping every member's label flattened to its region's canonical
// representative: the smallest ID in the region. That invariant is what
// makes Equals a plain per-ID comparison instead of a graph isomorphism
// check.
//
// Partition is never failing: it has no error return anywhere. All
// diagnosis is done through the callbacks passed to Apply.
type Partition struct {
	// label maps every tracked ID to the representative (smallest ID) of
	// its region. label[v] == v iff v is itself the representative.
	label map[ID]ID

	// consumed is keyed by region representative; consumed[r] is true iff
	// the region led by r has been consumed.
	consumed map[ID]bool
}

// New returns an empty partition (the bottom element of the lattice: no IDs
// tracked).
func New() *Partition {
	return &Partition{label: map[ID]ID{}, consumed: map[ID]bool{}}
}

// Singleton returns a partition with all of ids unified into one
// non-consumed region. Used to build the function's entry partition from
// its non-sendable formal parameters.
func Singleton(ids []ID) *Partition {
	p := New()
	for _, id := range ids {
		p.ensure(id)
	}
	for i := 1; i < len(ids); i++ {
		p.Merge(ids[0], ids[i])
	}
	return p
}

// Clone returns an independent deep copy.
func (p *Partition) Clone() *Partition {
	return &Partition{
		label:    maps.Clone(p.label),
		consumed: maps.Clone(p.consumed),
	}
}

// ensure makes sure v is tracked, inserting it as a fresh, non-consumed
// singleton if it is not already present. It never disturbs an existing
// entry.
func (p *Partition) ensure(v ID) {
	if _, ok := p.label[v]; !ok {
		p.label[v] = v
	}
}

// Find returns the representative of v's region and whether v is tracked.
func (p *Partition) Find(v ID) (ID, bool) {
	r, ok := p.label[v]
	return r, ok
}

// IsConsumed reports whether v's region is consumed. An untracked v is
// never consumed.
func (p *Partition) IsConsumed(v ID) bool {
	r, ok := p.label[v]
	if !ok {
		return false
	}
	return p.consumed[r]
}

// detach removes v from its current region, promoting a new leader for any
// former groupmates, then leaves v as a fresh, non-consumed singleton. This
// is exactly the "prior membership discarded" semantics AssignFresh and the
// dst side of Assign require.
func (p *Partition) detach(v ID) {
	oldLeader, tracked := p.label[v]
	if tracked && oldLeader == v {
		// v was the representative: find remaining groupmates and promote
		// the smallest of them to be the new leader.
		var groupmates []ID
		for x, l := range p.label {
			if x != v && l == v {
				groupmates = append(groupmates, x)
			}
		}
		if len(groupmates) > 0 {
			newLeader := slices.Min(groupmates)
			wasConsumed := p.consumed[oldLeader]
			for _, x := range groupmates {
				p.label[x] = newLeader
			}
			if wasConsumed {
				p.consumed[newLeader] = true
			}
		}
		delete(p.consumed, oldLeader)
	}
	p.label[v] = v
	delete(p.consumed, v)
}

// mergeLeaders unions the regions led by ra and rb (ra != rb), keeping the
// smaller as the combined region's representative, and ORs their consumed
// flags.
func (p *Partition) mergeLeaders(ra, rb ID) {
	newLeader, oldLeader := ra, rb
	if oldLeader < newLeader {
		newLeader, oldLeader = oldLeader, newLeader
	}
	for x, l := range p.label {
		if l == oldLeader {
			p.label[x] = newLeader
		}
	}
	if p.consumed[oldLeader] {
		p.consumed[newLeader] = true
	}
	delete(p.consumed, oldLeader)
}

// AssignFresh places v into a newly allocated, non-consumed region by
// itself, discarding any prior membership of v.
func (p *Partition) AssignFresh(v ID) {
	p.detach(v)
}

// Assign makes dst a member of src's region, discarding dst's prior
// membership; dst inherits src's consumed status. src must already be
// tracked. A no-op when dst and src are already co-regional.
func (p *Partition) Assign(dst, src ID) {
	p.ensure(src)
	if sl, ok := p.label[dst]; ok && sl == p.label[src] {
		return
	}
	p.detach(dst)
	ra, _ := p.Find(dst)
	rb, _ := p.Find(src)
	if ra != rb {
		p.mergeLeaders(ra, rb)
	}
}

// Merge unifies the regions of a and b. If either was consumed, the merged
// region is consumed. A no-op when a and b are already co-regional.
func (p *Partition) Merge(a, b ID) {
	p.ensure(a)
	p.ensure(b)
	ra, _ := p.Find(a)
	rb, _ := p.Find(b)
	if ra == rb {
		return
	}
	p.mergeLeaders(ra, rb)
}

// Consume marks v's entire region as consumed.
func (p *Partition) Consume(v ID) {
	p.ensure(v)
	r, _ := p.Find(v)
	p.consumed[r] = true
}

// Require is an observation: it never changes state. The caller (via Apply)
// is responsible for acting on the consumed status it reports.
func (p *Partition) Require(v ID) bool {
	return p.IsConsumed(v)
}

// Tracked returns every tracked ID, sorted ascending.
func (p *Partition) Tracked() []ID {
	ids := maps.Keys(p.label)
	slices.Sort(ids)
	return ids
}

// ConsumedIDs returns every tracked ID whose region is consumed, sorted
// ascending.
func (p *Partition) ConsumedIDs() []ID {
	var out []ID
	for v, r := range p.label {
		if p.consumed[r] {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// Region describes one equivalence class as of a snapshot of the partition.
type Region struct {
	Leader   ID
	Members  []ID
	Consumed bool
}

// Regions returns every region in the partition, sorted by leader, with
// sorted members. Used by the race tracer to iterate non-consumed regions
// when building the single-step-join graph.
func (p *Partition) Regions() []Region {
	byLeader := map[ID][]ID{}
	for v, r := range p.label {
		byLeader[r] = append(byLeader[r], v)
	}
	leaders := maps.Keys(byLeader)
	slices.Sort(leaders)
	out := make([]Region, 0, len(leaders))
	for _, l := range leaders {
		members := byLeader[l]
		slices.Sort(members)
		out = append(out, Region{Leader: l, Members: members, Consumed: p.consumed[l]})
	}
	return out
}

// Equals reports whether p and q describe the same partition semantically:
// the same tracked IDs, grouped into the same regions, with the same
// consumed status. Because both partitions canonicalize region labels to
// the smallest member ID, this reduces to a per-ID comparison instead of a
// graph isomorphism check — see the type doc comment.
func Equals(p, q *Partition) bool {
	if len(p.label) != len(q.label) {
		return false
	}
	for v, pl := range p.label {
		ql, ok := q.label[v]
		if !ok || pl != ql {
			return false
		}
		if p.consumed[pl] != q.consumed[ql] {
			return false
		}
	}
	return true
}

// Join returns the least partition greater than or equal to both p and q:
// the finest refinement coarser than both input equivalences, with a region
// consumed in the join iff it overlaps a consumed region of p or of q.
func Join(p, q *Partition) *Partition {
	out := New()
	for v := range p.label {
		out.ensure(v)
	}
	for v := range q.label {
		out.ensure(v)
	}
	for v := range p.label {
		if r, ok := p.Find(v); ok {
			out.Merge(v, r)
		}
	}
	for v := range q.label {
		if r, ok := q.Find(v); ok {
			out.Merge(v, r)
		}
	}
	for v := range out.label {
		if p.IsConsumed(v) || q.IsConsumed(v) {
			out.Consume(v)
		}
	}
	return out
}
