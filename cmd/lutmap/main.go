// Command lutmap is the FPGA technology-mapping CLI: it reads a gate-level
// netlist, maps its combinational logic into a shared term e-graph, runs
// equality saturation against the LUT rewrite rules, extracts a LUT-mapped
// expression, and re-materializes it back into the netlist as LUT1..LUT6
// and FDRE instances.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
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
	"techmap/internal/rules"
	"techmap/internal/term"
	"techmap/internal/verify"
)

const noLimit = -1

func main() {
	var (
		report     = flag.String("report", "", "write a JSON run report to this path")
		dumpGraph  = flag.String("dump-graph", "", "write a JSON e-graph dump to this path")
		assertSat  = flag.Bool("a", false, "return an error if the graph does not reach saturation")
		noVerify   = flag.Bool("f", false, "do not verify the functional equivalence of the output")
		noCanon    = flag.Bool("c", false, "do not canonicalize the input into LUTs")
		noRetime   = flag.Bool("r", false, "do not use register retiming")
		verbose    = flag.Bool("v", false, "print explanations (generates a proof and runs slower)")
		minDepth   = flag.Bool("min-depth", false, "extract for minimum circuit depth")
		k          = flag.Int("k", 6, "max fan-in size allowed for extracted LUTs")
		regWeight  = flag.Float64("w", 1, "ratio of register cost to LUT cost")
		timeout    = flag.Int("t", noLimit, "build/extraction timeout in seconds")
		nodeLimit  = flag.Int("s", noLimit, "maximum number of nodes in the graph")
		iterLimit  = flag.Int("n", noLimit, "maximum number of rewrite iterations")
		exact      = flag.String("exact", "", "perform exact extraction (\"dynprog\", or any other value for ILP)")
		suffix     = flag.String("suffix", "_orig", "suffix appended to a top-level output net's old name after remapping")
		printNL    = flag.Bool("print", false, "print the loaded netlist to stderr before mapping")
		configPath = flag.String("config", "", "path to a YAML options file supplying defaults for -k/-w/-t/-s/-n/-suffix")
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
		config.Overlay(explicit, "w", regWeight, opts.RegWeight, 0)
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

	fmt.Fprintln(os.Stderr, "INFO: lutmap (FPGA Technology Mapping w/ E-Graphs)")

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
	m := mapper.New(mapper.LutLogic{})
	if *noRetime {
		mapping, err = m.RegisterToRegister(nl.Roots(), nl.SequentialInputs())
	} else {
		mapping, err = m.Map(nl.Roots(), nil)
	}
	if err != nil {
		fail(err)
	}

	ruleset, err := buildRuleset(*noRetime)
	if err != nil {
		fail(err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "INFO: running with %d rewrite rules\n", len(ruleset))
		fmt.Fprintf(os.Stderr, "INFO: retiming rewrites %s\n", onOff(!*noRetime))
	}

	g := egraph.New[analysis.Value](term.LutLang{}, analysis.Lattice{})
	root := g.AddExpr(mapping.Expr)

	req, err := buildRequest(requestArgs{
		timeout: *timeout, nodeLimit: *nodeLimit, iterLimit: *iterLimit,
		verbose: *verbose, report: *report != "", dumpGraph: *dumpGraph, noCanon: *noCanon,
	})
	if err != nil {
		fail(err)
	}
	fmt.Fprintln(os.Stderr, "INFO: building e-graph...")
	rpt, err := driver.Run(req, g, ruleset)
	if err != nil {
		fail(err)
	}
	if *assertSat && rpt.HitLimit != "" {
		fail(fmt.Errorf("lutmap: saturation was not reached (hit limit: %s)", rpt.HitLimit))
	}

	var costFn cost.Func
	switch {
	case *minDepth:
		costFn = cost.Depth()
	default:
		costFn = cost.KLUT(*k, *regWeight)
	}

	expr, _, err := extract(g, root, costFn, *exact, time.Duration(effectiveTimeout(*timeout))*time.Second)
	if err != nil {
		fail(err)
	}

	if *verbose {
		if chain := driver.Explain(g, root); len(chain) > 0 {
			fmt.Fprintf(os.Stderr, "INFO: root class explanation: %v\n", chain)
		}
	}

	if !*noVerify {
		ok, counterexample, err := verify.Equivalent(mapping.Expr, expr)
		if err != nil {
			fail(fmt.Errorf("lutmap: verifying output: %w", err))
		}
		if !ok {
			fail(fmt.Errorf("lutmap: mapped output is not functionally equivalent to the input (counterexample: %v)", counterexample))
		}
	}

	if *report != "" {
		if err := writeReport(*report, rpt); err != nil {
			fail(err)
		}
	}

	fmt.Fprintln(os.Stderr, "INFO: writing output netlist...")
	if err := remat.Rewrite(nl, mapping, expr, remat.LutNamer{}, *suffix, nil); err != nil {
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

func buildRuleset(noRetime bool) ([]*rules.Rule, error) {
	if noRetime {
		return rules.Default()
	}
	return rules.WithRetiming()
}

type requestArgs struct {
	timeout, nodeLimit, iterLimit int
	verbose, report, noCanon      bool
	dumpGraph                     string
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
		return nil, fmt.Errorf("lutmap: invalid build constraints (use none, one, or all three of -t/-s/-n)")
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
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
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

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func readNetlist(path string) (*netlist.Netlist, error) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "INFO: reading from stdin...")
		return netlist.Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lutmap: opening input: %w", err)
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
		return fmt.Errorf("lutmap: creating output: %w", err)
	}
	defer f.Close()
	return nl.Save(f)
}

func writeReport(path string, rpt *driver.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lutmap: creating report: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rpt); err != nil {
		return fmt.Errorf("lutmap: writing report: %w", err)
	}
	if _, err := fmt.Fprintf(os.Stderr, "INFO: %d iterations, %d ms elapsed, exact=%v\n", rpt.Iterations, rpt.ElapsedMS, rpt.Exact); err != nil {
		return err
	}
	return nil
}

func fail(err error) {
	color.Red("ERROR: %s", err)
	os.Exit(1)
}
