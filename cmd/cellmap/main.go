// Command cellmap is the ASIC technology-mapping CLI: it reads a gate-level
// netlist, maps its combinational logic into a shared term e-graph, runs
// equality saturation against the cell rewrite rules, extracts a
// cell-mapped expression, and re-materializes it back into the netlist as
// standard-cell instances named after the cell library.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"techmap/internal/analysis"
	"techmap/internal/config"
	"techmap/internal/cost"
	"techmap/internal/dag"
	"techmap/internal/driver"
	"techmap/internal/egraph"
	"techmap/internal/extract/dynprog"
	"techmap/internal/extract/greedy"
	"techmap/internal/extract/ilp"
	"techmap/internal/mapper"
	"techmap/internal/netlist"
	"techmap/internal/pass"
	"techmap/internal/remat"
	"techmap/internal/rulefile"
	"techmap/internal/rules"
	"techmap/internal/rules/cellfile"
	"techmap/internal/term"
	"techmap/internal/verify"
)

const noLimit = -1

func main() {
	var (
		report      = flag.String("report", "", "write a JSON run report to this path")
		dumpGraph   = flag.String("dump-graph", "", "write a JSON e-graph dump to this path")
		cellLibPath = flag.String("cell-library", "", "path to a text cell library file (\"NAME\" area=<float> arity=<int> per line)")
		rulesPath   = flag.String("rules", "", "path to a custom rule file that replaces the built-in rule set entirely")
		filter      = flag.String("filter", "", "comma separated list of cell/gate names to restrict extraction to")
		area        = flag.Bool("a", false, "use a cost model that weighs cells by their exact library area")
		noAssert    = flag.Bool("m", false, "do not check that all logic has been mapped to cells")
		verbose     = flag.Bool("v", false, "print explanations (generates a proof and runs slower)")
		noVerify    = flag.Bool("f", false, "do not verify the functional equivalence of the output")
		noCanon     = flag.Bool("c", false, "do not canonicalize the input")
		noRetime    = flag.Bool("r", false, "do not use register retiming")
		minDepth    = flag.Bool("min-depth", false, "extract for minimum circuit depth")
		k           = flag.Int("k", 6, "max fan-in size allowed for extracted cells")
		timeout     = flag.Int("t", noLimit, "build/extraction timeout in seconds")
		nodeLimit   = flag.Int("s", noLimit, "maximum number of nodes in the graph")
		iterLimit   = flag.Int("n", noLimit, "maximum number of rewrite iterations")
		exact       = flag.String("exact", "", "perform exact extraction (\"dynprog\", or any other value for ILP)")
		suffix      = flag.String("suffix", "_orig", "suffix appended to a top-level output net's old name after remapping")
		printNL     = flag.Bool("print", false, "print the loaded netlist to stderr before mapping")
		configPath  = flag.String("config", "", "path to a YAML options file supplying defaults for -k/-t/-s/-n/-suffix")
	)
	flag.Parse()

	if *configPath != "" {
		explicit := config.Explicit{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		opts, err := config.Load(*configPath)
		if err != nil {
			fail(err)
		}
		config.Overlay(explicit, "k", k, opts.K, 0)
		config.Overlay(explicit, "t", timeout, opts.Timeout, 0)
		config.Overlay(explicit, "s", nodeLimit, opts.NodeLimit, 0)
		config.Overlay(explicit, "n", iterLimit, opts.IterLimit, 0)
		config.Overlay(explicit, "suffix", suffix, opts.Suffix, "")
	}

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	fmt.Fprintln(os.Stderr, "INFO: cellmap (ASIC Technology Mapping w/ E-Graphs)")

	var lib *cellfile.Library
	if *cellLibPath != "" {
		var err error
		lib, err = loadLibrary(*cellLibPath)
		if err != nil {
			fail(err)
		}
	}
	if *area && lib == nil {
		fail(fmt.Errorf("cellmap: -a/--area requires -cell-library"))
	}

	nl, err := readNetlist(flag.Arg(0))
	if err != nil {
		fail(err)
	}

	if *printNL {
		out, err := pass.RunVerified(pass.PrintNetlist{}, nl)
		if err != nil {
			fail(err)
		}
		fmt.Fprintln(os.Stderr, out)
	}

	var mapping *mapper.LogicMapping
	m := mapper.New(mapper.CellLogic{})
	if *noRetime {
		mapping, err = m.RegisterToRegister(nl.Roots(), nl.SequentialInputs())
	} else {
		mapping, err = m.Map(nl.Roots(), nil)
	}
	if err != nil {
		fail(err)
	}

	ruleset, err := buildRuleset(*noRetime, lib, *rulesPath)
	if err != nil {
		fail(err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "INFO: running with %d rewrite rules\n", len(ruleset))
	}

	g := egraph.New[analysis.Value](term.CellLang{}, analysis.Lattice{})
	root := g.AddExpr(mapping.Expr)

	req, err := buildRequest(requestArgs{
		timeout: *timeout, nodeLimit: *nodeLimit, iterLimit: *iterLimit,
		verbose: *verbose, report: *report != "", dumpGraph: *dumpGraph, noCanon: *noCanon,
		filter: *filter,
	})
	if err != nil {
		fail(err)
	}

	fmt.Fprintln(os.Stderr, "INFO: building e-graph...")
	rpt, err := driver.Run(req, g, ruleset)
	if err != nil {
		fail(err)
	}

	costFn, err := chooseCost(*filter, *minDepth, *area, lib, *k)
	if err != nil {
		fail(err)
	}
	costFn = cost.Purged(costFn, rpt.Purged)

	expr, _, err := extract(g, root, costFn, *exact, time.Duration(effectiveTimeout(*timeout))*time.Second)
	if err != nil {
		fail(err)
	}

	if *verbose {
		if chain := driver.Explain(g, root); len(chain) > 0 {
			fmt.Fprintf(os.Stderr, "INFO: root class explanation: %v\n", chain)
		}
	}

	if !*noAssert && !exprIsMapped(expr) {
		fail(fmt.Errorf("cellmap: not all logic was mapped to cells; rerun with -m to skip this check"))
	}

	if !*noVerify {
		ok, counterexample, err := verify.Equivalent(mapping.Expr, expr)
		if err != nil {
			fail(fmt.Errorf("cellmap: verifying output: %w", err))
		}
		if !ok {
			fail(fmt.Errorf("cellmap: mapped output is not functionally equivalent to the input (counterexample: %v)", counterexample))
		}
	}

	if *report != "" {
		if err := writeReport(*report, rpt); err != nil {
			fail(err)
		}
	}

	fmt.Fprintln(os.Stderr, "INFO: writing output netlist...")
	if err := remat.Rewrite(nl, mapping, expr, remat.CellLibraryNamer{}, *suffix, nil); err != nil {
		fail(err)
	}
	if err := nl.Verify(); err != nil {
		fail(err)
	}

	if err := writeNetlist(flag.Arg(1), nl); err != nil {
		fail(err)
	}
	color.Green("INFO: goodbye")
}

// buildRuleset assembles the rewrite rule set: a custom rule file (-rules)
// replaces the built-in set entirely, otherwise it starts from the
// algebraic/normalization rules plus, when a cell library was given, the
// library-derived gate->cell bridge rules (the §4.4 category that lets any
// gate converge to a named Cell at all).
func buildRuleset(noRetime bool, lib *cellfile.Library, rulesPath string) ([]*rules.Rule, error) {
	if rulesPath != "" {
		f, err := rulefile.Load(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("cellmap: loading rule file: %w", err)
		}
		var out []*rules.Rule
		for _, d := range f.Active() {
			r, err := rules.Compile(d)
			if err != nil {
				return nil, fmt.Errorf("cellmap: compiling rule %q: %w", d.Name, err)
			}
			out = append(out, r)
		}
		return out, nil
	}

	var base []*rules.Rule
	var err error
	if noRetime {
		base, err = rules.Default()
	} else {
		base, err = rules.WithRetiming()
	}
	if err != nil {
		return nil, err
	}

	if lib != nil {
		expansion, err := rules.CellExpansionRules(lib)
		if err != nil {
			return nil, fmt.Errorf("cellmap: generating cell-library rules: %w", err)
		}
		base = append(base, expansion...)
	}
	return base, nil
}

type requestArgs struct {
	timeout, nodeLimit, iterLimit int
	verbose, report, noCanon      bool
	dumpGraph, filter             string
}

func buildRequest(a requestArgs) (*driver.SynthRequest, error) {
	req := driver.NewRequest()

	switch {
	case a.timeout == noLimit && a.nodeLimit == noLimit && a.iterLimit == noLimit:
		req.JointLimits(10*time.Second, 48_000, 32)
	case a.timeout != noLimit && a.nodeLimit == noLimit && a.iterLimit == noLimit:
		req.TimeLimited(time.Duration(a.timeout) * time.Second)
	case a.timeout == noLimit && a.nodeLimit != noLimit && a.iterLimit == noLimit:
		req.NodeLimited(a.nodeLimit)
	case a.timeout == noLimit && a.nodeLimit == noLimit && a.iterLimit != noLimit:
		req.IterLimited(a.iterLimit)
	case a.timeout != noLimit && a.nodeLimit != noLimit && a.iterLimit != noLimit:
		req.JointLimits(time.Duration(a.timeout)*time.Second, a.nodeLimit, a.iterLimit)
	default:
		return nil, fmt.Errorf("cellmap: invalid build constraints (use none, one, or all three of -t/-s/-n)")
	}

	if a.verbose {
		req.WithProofOpt()
	}
	if a.report {
		req.WithReportOpt()
	}
	if a.noCanon {
		req.WithoutCanonicalization()
	}
	if a.dumpGraph != "" {
		req.WithGraphDump(a.dumpGraph)
	}
	if a.filter != "" {
		names := splitFilter(a.filter)
		allowed := make(map[string]bool, len(names))
		for _, n := range names {
			allowed[n] = true
		}
		// PurgeFn only sees each class's op *kind* (driver.purge keys on
		// n.Op().String(), which collapses every named Cell to "Cell"), so
		// the coarsest useful purge is dropping generic Boolean gates once
		// the filter says it wants out of them — the finer, per-cell-name
		// restriction is enforced at extraction time by cost.Gate instead.
		generic := map[string]bool{"And": true, "Or": true, "Inv": true}
		req.WithAlgebraicScheduler().
			WithPurgeFn(func(opName string) bool { return generic[opName] && !allowed[opName] }).
			WithDisassemblyInto(names)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func chooseCost(filter string, minDepth, area bool, lib *cellfile.Library, k int) (cost.Func, error) {
	switch {
	case filter != "":
		return cost.Gate(filterWeights(splitFilter(filter))), nil
	case minDepth:
		return cost.Depth(), nil
	case area:
		return cost.Area(lib), nil
	case lib != nil:
		return cost.Gate(libraryWeights(lib, k)), nil
	default:
		return cost.Depth(), nil
	}
}

// filterWeights builds a Gate cost's allowed-name set from a -filter list,
// always admitting the structural leaf/bus ops at zero cost since a
// filter naming only cell/gate types would otherwise make every Var or
// Const leaf infinitely costly to extract.
func filterWeights(names []string) map[string]float64 {
	w := make(map[string]float64, len(names)+3)
	w["Var"] = 0
	w["Const"] = 0
	w["Bus"] = 0
	for _, n := range names {
		w[n] = 1
	}
	return w
}

// libraryWeights restricts extraction to cells of arity <= k, weighted by
// area so smaller cells are preferred among those allowed — the default
// cellmap extraction mode when a cell library is given but neither -a nor
// --min-depth was requested, approximating the original tool's "-k" fan-in
// cap (which has no direct per-arity cost function in this package).
func libraryWeights(lib *cellfile.Library, k int) map[string]float64 {
	w := map[string]float64{"Var": 0, "Const": 0, "Bus": 0}
	for name, c := range lib.Cells {
		if c.Arity <= k {
			w[name] = c.Area
		}
	}
	return w
}

func splitFilter(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// exprIsMapped reports whether every node of expr is a structural node
// (Var/Const/Bus) or a named Cell — i.e. no raw primitive gate survived
// extraction unmapped to a library cell.
func exprIsMapped(expr *dag.Expr) bool {
	for _, n := range expr.Nodes {
		switch n.(type) {
		case *term.Var, *term.Const, *term.Bus, *term.Cell:
		default:
			return false
		}
	}
	return true
}

func effectiveTimeout(t int) int {
	if t == noLimit {
		return 600
	}
	return t
}

func extract(g *egraph.EGraph[analysis.Value], root int, costFn cost.Func, exact string, timeout time.Duration) (*dag.Expr, float64, error) {
	switch exact {
	case "":
		ex, err := greedy.New(g, costFn)
		if err != nil {
			return nil, 0, err
		}
		return ex.Extract(root)
	case "dynprog":
		return dynprog.New(g, costFn).Extract(root)
	default:
		ex, err := ilp.New(g, costFn)
		if err != nil {
			return nil, 0, err
		}
		expr, c, _, err := ex.Extract(root, timeout)
		return expr, c, err
	}
}

func loadLibrary(path string) (*cellfile.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cellmap: reading cell library: %w", err)
	}
	lib, err := cellfile.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("cellmap: parsing cell library: %w", err)
	}
	return lib, nil
}

func readNetlist(path string) (*netlist.Netlist, error) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "INFO: reading from stdin...")
		return netlist.Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cellmap: opening input: %w", err)
	}
	defer f.Close()
	return netlist.Load(f)
}

func writeNetlist(path string, nl *netlist.Netlist) error {
	if path == "" {
		return nl.Save(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cellmap: creating output: %w", err)
	}
	defer f.Close()
	return nl.Save(f)
}

func writeReport(path string, rpt *driver.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cellmap: creating report: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rpt); err != nil {
		return fmt.Errorf("cellmap: writing report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "INFO: %d iterations, %d ms elapsed, exact=%v\n", rpt.Iterations, rpt.ElapsedMS, rpt.Exact)
	return nil
}

func fail(err error) {
	color.Red("ERROR: %s", err)
	os.Exit(1)
}
