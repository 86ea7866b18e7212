// Package fuzz provides a Go-native, seeded random term-DAG generator,
// grounded on original_source/src/fuzz.rs's RandomExtract (there, a random
// choice function over an existing e-graph; here, the same "make a random
// choice at every node" idea applied one level earlier, to build a random
// DAG from scratch). It backs internal/verify's random-vector fallback and
// any test that wants an arbitrary-but-reproducible term.Expr.
package fuzz

import (
	"math/rand"

	"techmap/internal/dag"
	"techmap/internal/term"
)

// Generator produces random LutLang term DAGs from a seeded PRNG, so a
// given seed always reproduces the same sequence of expressions.
type Generator struct {
	rng     *rand.Rand
	numVars int
	maxK    int
}

// New returns a Generator over numVars distinct variable leaves, building
// LUTs of arity up to maxK, seeded deterministically by seed.
func New(seed int64, numVars, maxK int) *Generator {
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		numVars: numVars,
		maxK:    maxK,
	}
}

// Expr builds one random term DAG of the given depth (number of internal
// LUT layers above the variable leaves).
func (g *Generator) Expr(depth int) *dag.Expr {
	b := dag.NewBuilder()
	leaves := make([]int, g.numVars)
	for i := 0; i < g.numVars; i++ {
		leaves[i] = b.Add(&term.Var{Name: varName(i)})
	}

	frontier := leaves
	for d := 0; d < depth; d++ {
		next := make([]int, 0, len(frontier))
		remaining := frontier
		for len(remaining) > 0 {
			k := 1 + g.rng.Intn(g.maxK)
			if k > len(remaining) {
				k = len(remaining)
			}
			var picked []int
			picked, remaining = g.pick(remaining, k)
			prog := g.rng.Uint64() & ((uint64(1) << (uint64(1) << uint(k))) - 1)
			kids := append([]int{b.Add(&term.Program{Value: prog})}, picked...)
			next = append(next, b.Add(&term.Lut{Kids: kids}))
		}
		frontier = next
	}

	// dag.Builder.Build requires the root to be the last-added node; the
	// randomly-chosen candidate rarely is, so close the DAG with a 1-input
	// identity LUT (program 0b10) over it, which both satisfies that
	// invariant and keeps the result a legal LutLang expression.
	chosen := frontier[g.rng.Intn(len(frontier))]
	buf := b.Add(&term.Program{Value: 0b10})
	final := b.Add(&term.Lut{Kids: []int{buf, chosen}})
	return b.Build(final)
}

// pick draws k random indices out of pool (Fisher-Yates-style swap-remove)
// and returns them alongside what's left of pool.
func (g *Generator) pick(pool []int, k int) (picked, remaining []int) {
	work := append([]int(nil), pool...)
	out := make([]int, 0, k)
	for i := 0; i < k && len(work) > 0; i++ {
		j := g.rng.Intn(len(work))
		out = append(out, work[j])
		work[j] = work[len(work)-1]
		work = work[:len(work)-1]
	}
	return out, work
}

func varName(i int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	if i < len(alphabet) {
		return string(alphabet[i])
	}
	return string(alphabet[i%len(alphabet)]) + varName(i/len(alphabet))
}

// RandomVectors returns n random assignments over k Boolean inputs, for
// internal/verify's fallback when a cone is too large to check exhaustively.
func RandomVectors(seed int64, k, n int) [][]bool {
	r := rand.New(rand.NewSource(seed))
	out := make([][]bool, n)
	for i := range out {
		bits := make([]bool, k)
		for j := range bits {
			bits[j] = r.Intn(2) == 1
		}
		out[i] = bits
	}
	return out
}
