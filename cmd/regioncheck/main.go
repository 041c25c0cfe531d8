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

import (
	"flag"
	"fmt"
	"go/token"
	"os"
	"strings"
	"time"

	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/regioncheck/regioncheck/analysis/format"
	"github.com/regioncheck/regioncheck/analyzer"
	"github.com/regioncheck/regioncheck/config"
	"github.com/regioncheck/regioncheck/diag"
	"github.com/regioncheck/regioncheck/internal/analysisutil"
	"github.com/regioncheck/regioncheck/ir"
	"github.com/regioncheck/regioncheck/ssair"
)

const pkgLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedExportFile |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes |
	packages.NeedModule

var (
	configPath = flag.String("config", "", "config file path")
	verbose    = flag.Bool("verbose", false, "verbose logging on standard error")
	exclude    = flag.String("exclude", "", "comma-separated list of path prefixes to exclude from analysis")
)

const usage = ` Region-based concurrency-safety checker.
Usage:
    regioncheck [options] <package path(s)>
Examples:
% regioncheck -config regioncheck.yaml ./...
`

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.NewDefault()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}

	logs := config.NewLogGroup(cfg)
	logs.SetAllOutput(os.Stderr)
	logs.Infof(format.Faint("reading sources"))

	fset := token.NewFileSet()
	pcfg := &packages.Config{Mode: pkgLoadMode, Tests: false, Fset: fset}
	initial, err := packages.Load(pcfg, flag.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load packages: %v\n", err)
		os.Exit(1)
	}
	if packages.PrintErrors(initial) > 0 {
		os.Exit(1)
	}

	prog, ssaPkgs := ssautil.AllPackages(initial, ssa.BuilderMode(0))
	for i, p := range ssaPkgs {
		if p == nil {
			fmt.Fprintf(os.Stderr, "cannot build SSA for package %s\n", initial[i])
			os.Exit(1)
		}
	}
	prog.Build()

	excludePrefixes := analysisutil.MakeAbsolute(splitComma(*exclude))
	functionFilter := func(fn *ssa.Function) bool {
		if fn.Pkg == nil {
			return false
		}
		pkgPath := fn.Pkg.Pkg.Path()
		if !cfg.MatchPkgFilter(pkgPath) {
			return false
		}
		return !analysisutil.IsExcluded(prog, fn, excludePrefixes)
	}

	oracles, err := ssair.NewOracles(prog, functionFilter, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pointer analysis failed: %v\n", err)
		os.Exit(1)
	}

	cg := cha.CallGraph(prog)
	coloring := ssair.ColorGoroutines(cg, prog, logs.GetDebug())

	emitter := diag.NewEmitter(os.Stdout)
	an := &analyzer.Analyzer{
		Config:  cfg,
		Types:   oracles,
		Alias:   oracles,
		Objects: oracles,
		Emitter: emitter,
		Logs:    logs,
		RunsConcurrently: func(fn ir.Function) bool {
			wrapped, ok := fn.(ssair.Function)
			if !ok {
				return false
			}
			return coloring.RunsConcurrently(cg, wrapped.F)
		},
	}

	start := time.Now()
	unhandled := 0
	analyzed := 0
	for fn := range ssautil.AllFunctions(prog) {
		if !functionFilter(fn) || len(fn.Blocks) == 0 {
			continue
		}
		res := an.AnalyzeFunction(ssair.Function{F: fn})
		unhandled += res.UnhandledCount
		analyzed++
	}
	duration := time.Since(start)

	emitter.Summary()
	if unhandled > 0 {
		logs.Warnf("%d instruction(s) fell through to the safe default (unhandled kind)", unhandled)
	}
	logs.Infof("analyzed %d function(s) in %3.4fs", analyzed, duration.Seconds())

	if len(emitter.Collected) > 0 {
		os.Exit(1)
	}
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
