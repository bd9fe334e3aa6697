package callgraph

import "github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"

// condensationEdges builds the SCC-DAG's adjacency (by SCC index) from
// the underlying call graph's function-level edges.
func (g *Graph) condensationEdges() map[int]map[int]bool {
	edges := make(map[int]map[int]bool, len(g.SCCs))
	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			from, to := n.SCCIndex, g.Nodes[dep].SCCIndex
			if from == to {
				continue
			}
			if edges[from] == nil {
				edges[from] = make(map[int]bool)
			}
			edges[from][to] = true
		}
	}
	return edges
}

// TopoSort returns the SCC indices in an order where every SCC appears
// after all SCCs it calls into (callee-before-caller), which is the
// order internal/inline walks to inline callees before considering their
// callers. Returns an InternalInvariant if the condensation isn't
// acyclic -- which can only mean the SCC computation itself is broken,
// since a correct condensation is a DAG by construction.
func (g *Graph) TopoSort() ([]int, error) {
	edges := g.condensationEdges()
	n := len(g.SCCs)
	inDegree := make([]int, n)
	for _, tos := range edges {
		for to := range tos {
			inDegree[to]++
		}
	}

	var queue []int
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	var order []int
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for to := range edges[cur] {
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != n {
		return nil, diag.NewInvariant(diag.CodeCallGraphCycle, "", "condensation graph is not a DAG: %d/%d components ordered", len(order), n)
	}

	// Kahn's algorithm naturally yields caller-before-callee for edges
	// directed caller->callee; reverse it so callees come first.
	reversed := make([]int, n)
	for i, id := range order {
		reversed[n-1-i] = id
	}
	return reversed, nil
}
