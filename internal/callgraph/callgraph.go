// Package callgraph builds the function call graph for a Module,
// computes its strongly connected components, condenses them into a
// DAG, and topologically sorts that DAG to drive inlining order.
package callgraph

import "github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"

// Node is one function's entry in the call graph arena.
type Node struct {
	FuncID       uint32
	Dependencies []uint32 // callees
	Dependants   []uint32 // callers
	SCCIndex     int
	InlineCost   int
}

// Graph is the whole-module call graph, arena-indexed by function id.
type Graph struct {
	Mod   *il.Module
	Nodes []*Node

	// SCCs[i] lists the function ids belonging to strongly connected
	// component i, in the order Tarjan's algorithm popped them.
	SCCs []SCC
}

// SCC is one strongly connected component of the call graph. A
// single-function SCC with no self-edge is just a non-recursive
// function; a single-function SCC with a self-edge, or any multi-
// function SCC, is mutually (or directly) recursive.
type SCC struct {
	Index     int
	Functions []uint32
}

// Recursive reports whether calls within this component can cycle back:
// either it has more than one function, or its single function calls
// itself directly.
func (s SCC) Recursive(g *Graph) bool {
	if len(s.Functions) > 1 {
		return true
	}
	f := s.Functions[0]
	for _, dep := range g.Nodes[f].Dependencies {
		if dep == f {
			return true
		}
	}
	return false
}

// Build scans every function's outgoing calls (rescanning metadata
// first) and assembles the node/edge arena.
func Build(mod *il.Module) *Graph {
	g := &Graph{Mod: mod, Nodes: make([]*Node, len(mod.Functions))}
	for i, fn := range mod.Functions {
		fn.Meta.RescanCalls(fn)
		g.Nodes[i] = &Node{FuncID: uint32(i)}
	}
	for i, fn := range mod.Functions {
		seen := make(map[uint32]bool)
		for _, call := range fn.Meta.OutgoingCalls {
			if seen[call.Callee] {
				continue
			}
			seen[call.Callee] = true
			g.Nodes[i].Dependencies = append(g.Nodes[i].Dependencies, call.Callee)
			if int(call.Callee) < len(g.Nodes) {
				g.Nodes[call.Callee].Dependants = append(g.Nodes[call.Callee].Dependants, uint32(i))
			}
		}
	}
	g.SCCs = tarjanSCC(g)
	for idx, scc := range g.SCCs {
		for _, f := range scc.Functions {
			g.Nodes[f].SCCIndex = idx
		}
	}
	for _, n := range g.Nodes {
		n.InlineCost = estimateInlineCost(mod.Function(n.FuncID))
	}
	return g
}

// instrWeight assigns a relative cost to one instruction's opcode: cheap
// arithmetic and data movement cost 1, a call or a store (something with
// a side effect, or something that itself might later be a candidate for
// further inlining) costs more, since duplicating those at every call
// site compounds.
func instrWeight(op il.Opcode) int {
	switch op {
	case il.OpCall:
		return 5
	case il.OpStore, il.OpStoreParam:
		return 2
	default:
		return 1
	}
}

// estimateInlineCost answers the spec's open question on how to weigh a
// callee for inlining: sum(instructionWeight) scaled by block count, so
// a function with many small blocks (more branchy, less likely to pay
// off when duplicated at every call site) costs more than a single
// straight-line block with the same weighted instruction sum.
func estimateInlineCost(fn *il.Function) int {
	weighted := 0
	blockCount := 0
	for _, b := range fn.Blocks {
		if b == nil || b.Dead {
			continue
		}
		blockCount++
		for _, instr := range b.Instr {
			weighted += instrWeight(instr.Opcode())
		}
	}
	if blockCount == 0 {
		return 0
	}
	return weighted * blockCount
}
