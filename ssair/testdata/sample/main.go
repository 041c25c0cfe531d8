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

package main

import "github.com/regioncheck/regioncheck/concurrency"

// Widget is marked Sendable.
type Widget struct {
	concurrency.SendableBase
	N int
}

// Worker is marked Actor.
type Worker struct {
	concurrency.ActorBase
}

func (w *Worker) Do() {}

// ActorLike is implemented by any Actor that can Do.
type ActorLike interface {
	concurrency.Actor
	Do()
}

func callThroughInterface(a ActorLike) {
	a.Do()
}

func callDirect(w *Worker) {
	w.Do()
}

func store(x *int, v int) {
	*x = v
}

func returnsTwo(x int) (int, int) {
	return x, x + 1
}

func main() {
	w := &Worker{}
	callDirect(w)
	callThroughInterface(w)

	var x int
	store(&x, 1)
	a, b := returnsTwo(x)

	ch := make(chan int, 1)
	go func() { ch <- a + b }()
}
