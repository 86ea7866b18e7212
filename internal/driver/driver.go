package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tliron/commonlog"

	"techmap/internal/analysis"
	"techmap/internal/cost"
	"techmap/internal/egraph"
	"techmap/internal/errs"
	"techmap/internal/rules"
)

var log = commonlog.GetLogger("techmap.driver")

// Report carries one saturation run's statistics (iterations, per-rule
// application counts, elapsed time, the limit that stopped the run, the
// operator names the purge predicate matched), serialized as JSON under its
// own field names; it does not share the GraphDump field names.
type Report struct {
	Iterations int             `json:"iterations"`
	Applied    map[string]int  `json:"applied"`
	ElapsedMS  int64           `json:"elapsed_ms"`
	HitLimit   string          `json:"hit_limit,omitempty"`
	Exact      bool            `json:"exact"`
	Purged     map[string]bool `json:"purged,omitempty"`
}

// GraphDump is the §6.4 JSON graph-dump shape.
type GraphDump struct {
	Nodes        map[string]DumpNode `json:"nodes"`
	RootEclasses []int               `json:"root_eclasses"`
	ClassData    map[string]string   `json:"class_data"`
}

// DumpNode is one entry of GraphDump.Nodes.
type DumpNode struct {
	Op       string  `json:"op"`
	Children []int   `json:"children"`
	EClass   int     `json:"eclass"`
	Cost     float64 `json:"cost"`
}

// Run drives the saturation loop described in §4.5: match all rules,
// apply, rebuild, check limits, repeat until a fixed point or a
// configured limit trips.
func Run(req *SynthRequest, g *egraph.EGraph[analysis.Value], ruleset []*rules.Rule) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var sched scheduler = defaultScheduler{}
	if req.AlgebraicScheduler {
		sched = newAlgebraicScheduler()
	}
	if req.WithProof {
		g.EnableExplain()
	}

	report := &Report{Applied: make(map[string]int)}
	start := time.Now()

	for iter := 0; ; iter++ {
		if req.limitsSet&limitIter != 0 && iter >= req.IterLimit {
			report.HitLimit = "iterations"
			break
		}
		if req.limitsSet&limitTime != 0 && time.Since(start) >= req.TimeLimit {
			report.HitLimit = "time"
			break
		}
		if req.limitsSet&limitNode != 0 && nodeCount(g) >= req.NodeLimit {
			report.HitLimit = "nodes"
			break
		}

		anyApplied := false
		for _, r := range ruleset {
			if !sched.allow(r.Name) {
				continue
			}
			before := nodeCount(g)
			n, err := r.Run(g)
			if err != nil {
				return report, fmt.Errorf("driver: iteration %d: %w", iter, err)
			}
			if err := g.Rebuild(); err != nil {
				return report, fmt.Errorf("driver: iteration %d: %w", iter, err)
			}
			grew := nodeCount(g) > before
			sched.observe(r.Name, grew)
			if n > 0 {
				anyApplied = true
				report.Applied[r.Name] += n
			}
		}
		report.Iterations = iter + 1
		sched.tick(iter, nodeCount(g))
		log.Debugf("iteration %d: %d nodes, %d rules applied so far", iter, nodeCount(g), len(report.Applied))

		if !anyApplied {
			break
		}
	}

	report.ElapsedMS = time.Since(start).Milliseconds()
	log.Noticef("saturation run done: %d iterations, %d ms, hit_limit=%q", report.Iterations, report.ElapsedMS, report.HitLimit)

	if req.PurgeFn != nil {
		report.Purged = purge(g, req.PurgeFn)
	}

	if req.GraphDumpPath != "" {
		if err := dumpGraph(g, nil, nil, req.GraphDumpPath); err != nil {
			return report, err
		}
	}

	return report, nil
}

func nodeCount(g *egraph.EGraph[analysis.Value]) int {
	total := 0
	for _, c := range g.Classes() {
		total += len(g.Nodes(c))
	}
	return total
}

// purge returns the set of operator names pred matched anywhere in g.
// Deleting a node from a live class would require rewriting every parent
// edge repair() depends on, so actual removal is left to extraction's cost
// function instead: Run surfaces this set on Report.Purged, and callers
// wrap their cost.Func with cost.Purged(fn, report.Purged) to charge those
// operators math.Inf(1) at extraction time.
func purge(g *egraph.EGraph[analysis.Value], pred func(string) bool) map[string]bool {
	purged := make(map[string]bool)
	for _, c := range g.Classes() {
		for _, n := range g.Nodes(c) {
			if pred(n.Op().String()) {
				purged[n.Op().String()] = true
			}
		}
	}
	return purged
}

func dumpGraph(g *egraph.EGraph[analysis.Value], costFn cost.Func, roots []int, path string) error {
	dump := GraphDump{
		Nodes:        make(map[string]DumpNode),
		RootEclasses: roots,
		ClassData:    make(map[string]string),
	}
	id := 0
	for _, c := range g.Classes() {
		dump.ClassData[fmt.Sprintf("%d", c)] = fmt.Sprintf("%+v", g.Data(c))
		for _, n := range g.Nodes(c) {
			nodeCost := 0.0
			if costFn != nil {
				nodeCost = costFn.Local(n)
			}
			dump.Nodes[fmt.Sprintf("%d", id)] = DumpNode{
				Op:       n.Op().String(),
				Children: n.Children(),
				EClass:   c,
				Cost:     nodeCost,
			}
			id++
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.NewIOError("creating graph dump file", err).Build()
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return errs.NewIOError("encoding graph dump", err).Build()
	}
	return nil
}

// DumpGraph exposes dumpGraph for callers (e.g. the CLI binaries) that want
// to pass a real cost function and root class list after extraction.
func DumpGraph(g *egraph.EGraph[analysis.Value], costFn cost.Func, roots []int, path string) error {
	return dumpGraph(g, costFn, roots, path)
}

// Explain returns the chain of rule names that justify why id's class
// merged into its current representative, for callers that built the
// request with WithProofOpt. It is empty if id was already canonical or
// the request never enabled explanation tracking.
func Explain(g *egraph.EGraph[analysis.Value], id int) []string {
	return g.Explain(id)
}
