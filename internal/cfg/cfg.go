// Package cfg computes and maintains control-flow graph structure over
// an il.Function: predecessor/successor consistency, dominance, and
// dominance frontiers, plus the graph-surgery primitives
// (Unlink/RemoveNode/MergeNodes) that the algebraic simplifier's
// branch-folding uses.
package cfg

import "github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"

// Graph wraps an il.Function with derived dominance structure. Callers
// must call Build (or RebuildDomTree after any edge mutation) before
// trusting IDom/DomTree/Frontier.
type Graph struct {
	Fn *il.Function

	// IDom[b] is the immediate dominator of block b, or -1 for the entry
	// block.
	IDom []int
	// DomTree[b] lists the blocks immediately dominated by b.
	DomTree [][]int
	// Frontier[b] is b's dominance frontier per Cytron et al.
	Frontier [][]int

	rpo    []int
	rpoPos map[int]int
}

// New links edges from each block's terminator and returns a Graph ready
// for Build.
func New(fn *il.Function) *Graph {
	g := &Graph{Fn: fn}
	g.relinkEdges()
	return g
}

// relinkEdges derives every block's Preds/Succs from its terminator,
// discarding whatever was there before. Used on construction and after
// bulk instruction rewrites that may have changed jump targets. A
// terminator target that names a dead block gets no edge, so an edge
// removed by Unlink/RemoveNode stays removed.
func (g *Graph) relinkEdges() {
	for _, b := range g.Fn.Blocks {
		if b == nil {
			continue
		}
		b.Succs = nil
		b.Preds = nil
	}
	for _, b := range g.Fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for _, t := range successorsOf(b.Terminator()) {
			if g.Fn.Block(t) == nil {
				continue
			}
			b.AddSucc(t)
		}
	}
	for _, b := range g.Fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		for _, s := range b.Succs {
			if sb := g.Fn.Block(s); sb != nil {
				sb.AddPred(b.ID)
			}
		}
	}
}

func successorsOf(term il.Instruction) []int {
	switch t := term.(type) {
	case *il.JumpInstr:
		return []int{t.Target}
	case *il.CondJumpInstr:
		return []int{t.TakenBlock, t.FallthruBlock}
	default:
		return nil
	}
}

// Build computes reverse postorder, the dominator tree, and dominance
// frontiers from the current edge set. Call after New, and again after
// any Unlink/RemoveNode/MergeNodes via RebuildDomTree.
func (g *Graph) Build() {
	g.computeRPO()
	g.computeDominators()
	g.computeFrontiers()
}

// RebuildDomTree re-derives edges from terminators and recomputes
// dominance from scratch. Passes that fold branches call this after
// mutating jump targets, rather than trying to incrementally patch
// dominance (the original implementation does the same: dominance is
// cheap enough on typical function sizes to just recompute).
func (g *Graph) RebuildDomTree() {
	g.relinkEdges()
	g.Build()
}

// rpoFrame is one level of the explicit stack standing in for recursion
// in computeRPO's postorder DFS, the same shape tarjanSCC's frame stack
// takes: i is the index of the next successor to examine.
type rpoFrame struct {
	id int
	i  int
}

// computeRPO walks the CFG with an explicit frame stack rather than Go
// recursion, since a large or adversarially deep single-function CFG can
// exceed the default goroutine stack otherwise (the same reasoning
// internal/callgraph's tarjanSCC applies to the call graph).
func (g *Graph) computeRPO() {
	visited := make(map[int]bool)
	var order []int

	frames := []rpoFrame{{id: g.Fn.Entry}}
	visited[g.Fn.Entry] = true
	for len(frames) > 0 {
		top := len(frames) - 1
		f := &frames[top]
		b := g.Fn.Block(f.id)
		if b == nil {
			frames = frames[:top]
			continue
		}
		advanced := false
		for f.i < len(b.Succs) {
			s := b.Succs[f.i]
			f.i++
			if !visited[s] {
				visited[s] = true
				frames = append(frames, rpoFrame{id: s})
				advanced = true
				break
			}
		}
		if advanced {
			continue
		}
		order = append(order, f.id)
		frames = frames[:top]
	}

	// order is postorder; reverse for RPO.
	g.rpo = make([]int, len(order))
	for i, id := range order {
		g.rpo[len(order)-1-i] = id
	}
	g.rpoPos = make(map[int]int, len(g.rpo))
	for i, id := range g.rpo {
		g.rpoPos[id] = i
	}
}

// computeDominators is the standard Cooper/Harvey/Kennedy iterative
// fixed-point algorithm operating over reverse postorder, used because
// it avoids the recursive Lengauer-Tarjan formulation and matches the
// "iterative, explicit-worklist" style the rest of this package favors.
func (g *Graph) computeDominators() {
	n := len(g.Fn.Blocks)
	g.IDom = make([]int, n)
	for i := range g.IDom {
		g.IDom[i] = -2 // unprocessed sentinel
	}
	entry := g.Fn.Entry
	g.IDom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range g.rpo {
			if b == entry {
				continue
			}
			blk := g.Fn.Block(b)
			if blk == nil {
				continue
			}
			newIdom := -2
			for _, p := range blk.Preds {
				if g.IDom[p] == -2 {
					continue
				}
				if newIdom == -2 {
					newIdom = p
					continue
				}
				newIdom = g.intersect(newIdom, p)
			}
			if newIdom != -2 && g.IDom[b] != newIdom {
				g.IDom[b] = newIdom
				changed = true
			}
		}
	}
	g.IDom[entry] = -1

	g.DomTree = make([][]int, n)
	for b := 0; b < n; b++ {
		if g.Fn.Block(b) == nil || b == entry {
			continue
		}
		idom := g.IDom[b]
		if idom < 0 {
			continue
		}
		g.DomTree[idom] = append(g.DomTree[idom], b)
	}
}

func (g *Graph) intersect(a, b int) int {
	for a != b {
		for g.rpoPos[a] > g.rpoPos[b] {
			a = g.IDom[a]
		}
		for g.rpoPos[b] > g.rpoPos[a] {
			b = g.IDom[b]
		}
	}
	return a
}

// computeFrontiers implements the Cytron et al. dominance-frontier
// algorithm: a block b is in the frontier of a iff a dominates a
// predecessor of b but does not strictly dominate b itself.
func (g *Graph) computeFrontiers() {
	n := len(g.Fn.Blocks)
	g.Frontier = make([][]int, n)
	for _, b := range g.Fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		if len(b.Preds) < 2 {
			continue
		}
		for _, p := range b.Preds {
			runner := p
			for runner != g.IDom[b.ID] && runner >= 0 {
				g.Frontier[runner] = addFrontier(g.Frontier[runner], b.ID)
				runner = g.IDom[runner]
			}
		}
	}
}

func addFrontier(xs []int, v int) []int {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (g *Graph) Dominates(a, b int) bool {
	for {
		if b == a {
			return true
		}
		if b == g.Fn.Entry {
			return false
		}
		b = g.IDom[b]
	}
}

// RPO returns the cached reverse-postorder block ordering from the last
// Build.
func (g *Graph) RPO() []int { return g.rpo }
