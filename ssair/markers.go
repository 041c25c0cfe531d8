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

import gotypes "go/types"

// markerPkgPath is the import path of the package declaring the Sendable
// and Actor marker interfaces. A target program opts a type in by
// embedding concurrency.SendableBase or concurrency.ActorBase, which
// promotes the exported marker method of the name below into the type's
// method set.
const markerPkgPath = "github.com/regioncheck/regioncheck/concurrency"

const (
	sendableMarkerName = "RegioncheckSendable"
	actorMarkerName    = "RegioncheckActor"
)

// implementsMarker reports whether t (or *t) has methodName promoted from
// this package's marker base types.
func implementsMarker(t gotypes.Type, methodName string) bool {
	if t == nil {
		return false
	}
	if hasMarkerMethod(t, methodName) {
		return true
	}
	return hasMarkerMethod(gotypes.NewPointer(t), methodName)
}

func hasMarkerMethod(t gotypes.Type, methodName string) bool {
	obj, _, _ := gotypes.LookupFieldOrMethod(t, true, nil, methodName)
	fn, ok := obj.(*gotypes.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}
	return fn.Pkg().Path() == markerPkgPath
}

// isSendableMarked reports whether t declares itself Sendable via the
// concurrency marker interface, independent of the raw-pointer rule in
// hasReferenceSemantics and the function-reference override applied in
// translate.Translator.
func isSendableMarked(t gotypes.Type) bool {
	return implementsMarker(t, sendableMarkerName)
}
