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

// Package region implements a partition semilattice over value identifiers:
// equivalence classes ("regions"), some of which are flagged "consumed",
// plus the monotone operations and join used by the solver.
package region

// ID is a value identifier minted by a translate.Translator for each
// non-sendable value it encounters. IDs are dense, unique per function, and
// monotonically assigned; see translate.Translator.
type ID uint32
