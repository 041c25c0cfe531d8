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
	gotypes "go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/regioncheck/regioncheck/ir"
)

// Value wraps an ssa.Value. Two Values compare equal as map keys exactly
// when the underlying ssa.Value pointers are equal, which is what
// translate.Translator relies on for its canonical-value-to-ID map.
type Value struct {
	V ssa.Value
}

var _ ir.Value = Value{}

// Type wraps V's static type.
func (v Value) Type() ir.Type { return Type{T: v.V.Type()} }

// String returns V's SSA textual form, for diagnostics only.
func (v Value) String() string { return v.V.String() }

// Type wraps a go/types.Type.
type Type struct {
	T gotypes.Type
}

var _ ir.Type = Type{}

func (t Type) String() string { return t.T.String() }

// IsFunc reports whether t is a function/method value's type, the
// override translate.Translator applies to always treat such references
// as sendable: function and method-value references are always treated as
// sendable regardless of what they close over.
func (t Type) IsFunc() bool {
	_, ok := t.T.Underlying().(*gotypes.Signature)
	return ok
}
