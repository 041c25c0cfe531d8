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

import "testing"

func TestSingletonUnifiesAll(t *testing.T) {
	p := Singleton([]ID{1, 2, 3})
	r1, _ := p.Find(1)
	r2, _ := p.Find(2)
	r3, _ := p.Find(3)
	if r1 != r2 || r2 != r3 {
		t.Fatalf("expected 1, 2, 3 co-regional, got %d %d %d", r1, r2, r3)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	p := New()
	p.Merge(1, 2)
	before := p.Clone()
	p.Merge(1, 2)
	if !Equals(before, p) {
		t.Fatalf("merging an already-co-regional pair changed the partition")
	}
}

func TestAssignDiscardsDstPriorMembership(t *testing.T) {
	p := New()
	p.Merge(1, 2)
	p.Consume(3)
	p.Assign(1, 3)

	r1, _ := p.Find(1)
	r3, _ := p.Find(3)
	if r1 != r3 {
		t.Fatalf("expected 1 to join 3's region after Assign")
	}
	if !p.IsConsumed(1) {
		t.Fatalf("expected 1 to inherit 3's consumed status")
	}
	r2, ok := p.Find(2)
	if !ok {
		t.Fatalf("expected 2 to remain tracked after 1 left its region")
	}
	if r2 == r1 {
		t.Fatalf("expected 2 to stay in its own region, not follow 1 into 3's region")
	}
	if p.IsConsumed(2) {
		t.Fatalf("2's region should not have been consumed")
	}
}

func TestAssignFreshDetachesWithoutDisturbingGroupmates(t *testing.T) {
	p := New()
	p.Merge(1, 2)
	p.Merge(2, 3)
	p.Consume(1)

	p.AssignFresh(2)

	if p.IsConsumed(2) {
		t.Fatalf("a freshly detached value must not stay consumed")
	}
	r1, _ := p.Find(1)
	r3, _ := p.Find(3)
	if r1 != r3 {
		t.Fatalf("expected 1 and 3 to remain co-regional after 2 detached")
	}
	if !p.IsConsumed(1) || !p.IsConsumed(3) {
		t.Fatalf("1 and 3's region should still be consumed")
	}
}

func TestConsumeAndRequire(t *testing.T) {
	p := New()
	p.Merge(1, 2)
	if p.Require(1) {
		t.Fatalf("a fresh region must not already be consumed")
	}
	p.Consume(2)
	if !p.Require(1) {
		t.Fatalf("consuming 2 must mark 1's co-region consumed too")
	}
}

func TestUntrackedValueIsNeverConsumed(t *testing.T) {
	p := New()
	if p.IsConsumed(42) {
		t.Fatalf("an untracked ID must never report consumed")
	}
}

func TestTrackedAndConsumedIDsAreSorted(t *testing.T) {
	p := New()
	p.Merge(3, 1)
	p.Merge(1, 2)
	p.Consume(2)
	p.AssignFresh(4)

	tracked := p.Tracked()
	want := []ID{1, 2, 3, 4}
	if len(tracked) != len(want) {
		t.Fatalf("Tracked() = %v, want %v", tracked, want)
	}
	for i := range want {
		if tracked[i] != want[i] {
			t.Fatalf("Tracked() = %v, want %v", tracked, want)
		}
	}

	consumed := p.ConsumedIDs()
	if len(consumed) != 3 || consumed[0] != 1 || consumed[1] != 2 || consumed[2] != 3 {
		t.Fatalf("ConsumedIDs() = %v, want [1 2 3]", consumed)
	}
}

func TestRegionsGroupedByLeader(t *testing.T) {
	p := New()
	p.Merge(5, 2)
	p.Consume(2)
	p.AssignFresh(9)

	regions := p.Regions()
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d: %v", len(regions), regions)
	}
	first := regions[0]
	if first.Leader != 2 || len(first.Members) != 2 || !first.Consumed {
		t.Fatalf("unexpected first region: %+v", first)
	}
	second := regions[1]
	if second.Leader != 9 || second.Consumed {
		t.Fatalf("unexpected second region: %+v", second)
	}
}

func TestEqualsIgnoresLabelChurn(t *testing.T) {
	p := New()
	p.Merge(1, 2)
	p.Merge(2, 3)

	q := New()
	q.Merge(3, 2)
	q.Merge(2, 1)

	if !Equals(p, q) {
		t.Fatalf("expected p and q to be semantically equal regardless of merge order")
	}
}

func TestJoinIsLeastUpperBound(t *testing.T) {
	// p: {1,2} consumed, {3} free. q: {1} free, {2,3} free.
	p := New()
	p.Merge(1, 2)
	p.Consume(1)
	p.AssignFresh(3)

	q := New()
	q.AssignFresh(1)
	q.Merge(2, 3)

	j := Join(p, q)

	// The join must be coarser than or equal to both inputs: anything
	// co-regional in p or in q must be co-regional in the join.
	r1, _ := j.Find(1)
	r2, _ := j.Find(2)
	r3, _ := j.Find(3)
	if r1 != r2 || r2 != r3 {
		t.Fatalf("join must unify everything reachable via either input's equivalence, got %d %d %d", r1, r2, r3)
	}
	// A region consumed in either input must be consumed in the join.
	if !j.IsConsumed(1) {
		t.Fatalf("join must preserve p's consumed region")
	}
}

func TestJoinIsCommutativeAndIdempotent(t *testing.T) {
	p := New()
	p.Merge(1, 2)
	q := New()
	q.Consume(2)
	q.AssignFresh(3)

	pq := Join(p, q)
	qp := Join(q, p)
	if !Equals(pq, qp) {
		t.Fatalf("Join must be commutative")
	}

	pp := Join(p, p)
	if !Equals(pp, p) {
		t.Fatalf("Join(p, p) must equal p")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := New()
	p.Merge(1, 2)
	clone := p.Clone()
	p.Consume(1)
	if clone.IsConsumed(2) {
		t.Fatalf("mutating the original must not affect the clone")
	}
}
