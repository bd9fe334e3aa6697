package callgraph

// tarjanFrame is one level of the explicit call stack standing in for
// recursion, grounded on
// original_source/src/il/scc_graph.hpp's Frame{v, i, returning}: v is
// the node being visited, i is the index of the next dependency edge to
// examine, and returning marks that we're resuming after a nested visit
// rather than starting fresh.
type tarjanFrame struct {
	v         uint32
	i         int
	returning bool
}

// tarjanSCC computes strongly connected components with Tarjan's
// algorithm, using an explicit frame stack instead of recursion so that
// call graphs with thousands of functions (or an adversarially deep
// recursive chain) cannot blow the goroutine stack. Grounded on
// original_source/src/il/scc_graph.hpp.
func tarjanSCC(g *Graph) []SCC {
	n := len(g.Nodes)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var sccStack []uint32
	var result []SCC
	nextIndex := 0

	for start := 0; start < n; start++ {
		if index[start] != -1 {
			continue
		}

		var frames []tarjanFrame
		frames = append(frames, tarjanFrame{v: uint32(start)})

		for len(frames) > 0 {
			top := len(frames) - 1
			f := &frames[top]
			v := f.v

			if !f.returning && index[v] == -1 {
				index[v] = nextIndex
				lowlink[v] = nextIndex
				nextIndex++
				sccStack = append(sccStack, v)
				onStack[v] = true
			}

			deps := g.Nodes[v].Dependencies
			advanced := false
			for f.i < len(deps) {
				w := deps[f.i]
				if f.returning {
					// Resuming after frames[top+1] (the child we just
					// pushed for deps[f.i]) returned; fold its lowlink
					// into ours before moving to the next dependency.
					if lowlink[w] < lowlink[v] {
						lowlink[v] = lowlink[w]
					}
					f.returning = false
					f.i++
					continue
				}
				if index[w] == -1 {
					f.returning = true
					frames = append(frames, tarjanFrame{v: w})
					advanced = true
					break
				}
				if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
				f.i++
			}
			if advanced {
				continue
			}

			// All of v's dependencies are processed; if v is an SCC
			// root, pop the component off sccStack.
			if lowlink[v] == index[v] {
				var comp []uint32
				for {
					w := sccStack[len(sccStack)-1]
					sccStack = sccStack[:len(sccStack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				result = append(result, SCC{Index: len(result), Functions: comp})
			}

			frames = frames[:top]
		}
	}

	return result
}
