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

// Package concurrency declares the two marker interfaces the analyzer uses
// in place of Swift's Sendable protocol and actor-isolated types: a Go
// program opts a type into "safe to hand across a region boundary" by
// implementing Sendable, and opts a type into "calls to it always cross
// isolation" by implementing Actor. Neither interface declares any method
// a real implementation must honor at runtime; they exist purely as a type
// assertion target for the static analyzer. A type implements them by
// embedding the corresponding base struct, which promotes a marker method
// the ssair package looks up by name and package path.
package concurrency

// Sendable marks a type as safe to pass across a region boundary without
// losing exclusive access to its contents. Embed SendableBase to implement
// it.
type Sendable interface {
	RegioncheckSendable()
}

// SendableBase is embedded by types that want to declare themselves
// Sendable.
type SendableBase struct{}

// RegioncheckSendable is a marker method; it is never called.
func (SendableBase) RegioncheckSendable() {}

// Actor marks a type whose methods always execute in a distinct
// concurrency domain from their caller, the Go stand-in for a Swift actor.
// Embed ActorBase to implement it.
type Actor interface {
	RegioncheckActor()
}

// ActorBase is embedded by types that want to declare themselves an Actor.
type ActorBase struct{}

// RegioncheckActor is a marker method; it is never called.
func (ActorBase) RegioncheckActor() {}
