// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
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

package graphutil_test

import (
	"path/filepath"
	"testing"

	"github.com/regioncheck/regioncheck/internal/graphutil"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

func loadTrivialCallgraph(t *testing.T) *graphutil.CGraph {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
			packages.NeedSyntax | packages.NeedTypesInfo,
	}
	initial, err := packages.Load(cfg, "./"+filepath.Join("testdata", "trivial"))
	if err != nil {
		t.Fatalf("failed to load testdata: %v", err)
	}
	if packages.PrintErrors(initial) > 0 {
		t.Fatalf("testdata package has errors")
	}
	prog, _ := ssautil.AllPackages(initial, ssa.BuilderMode(0))
	prog.Build()
	cg := cha.CallGraph(prog)
	it := graphutil.NewCallgraphIterator(cg)
	return &it
}

// cycleFunctionNames maps one elementary cycle's node IDs back to the
// function names the call graph iterator wraps them in.
func cycleFunctionNames(it *graphutil.CGraph, cycle []int64) map[string]bool {
	names := map[string]bool{}
	for _, id := range cycle {
		if n, ok := it.IDMap[id]; ok && n.Node != nil && n.Node.Func != nil {
			names[n.Node.Func.Name()] = true
		}
	}
	return names
}

func TestFindAllElementaryCycles(t *testing.T) {
	it := loadTrivialCallgraph(t)
	cycles := graphutil.FindAllElementaryCycles(*it)
	if len(cycles) == 0 {
		t.Fatalf("expected at least one elementary cycle in testdata/trivial's call graph")
	}

	var sawF1F2, sawG2G3 bool
	for _, cycle := range cycles {
		names := cycleFunctionNames(it, cycle)
		if names["f1"] && names["f2"] {
			sawF1F2 = true
		}
		if names["g2"] && names["g3"] {
			sawG2G3 = true
		}
	}
	if !sawF1F2 {
		t.Errorf("expected a cycle through f1/f2, got %d cycles total", len(cycles))
	}
	if !sawG2G3 {
		t.Errorf("expected a cycle through g2/g3, got %d cycles total", len(cycles))
	}
}
