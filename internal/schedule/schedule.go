// Package schedule orders a patch graph for block processing.
//
// Nodes are identified by their index in creation order and edges by
// their index in cable creation order. The graph may contain cycles:
// depth-first traversal over the "destination depends on source"
// relation classifies every edge that closes a cycle as deferred. The
// remaining forward edges form a DAG and the returned order satisfies
// all of them.
package schedule

// Edge is a directed connection from source node to destination node.
type Edge struct {
	From, To int
}

// Schedule is a total order of nodes and classification of edges.
type Schedule struct {
	// Order contains every node exactly once.
	Order []int
	// Deferred is indexed by edge. Deferred edges read the value of the
	// previous block.
	Deferred []bool
}

// node states during traversal.
const (
	unvisited = iota
	onStack
	done
)

// frame is an entry of the explicit traversal stack.
type frame struct {
	node int
	next int // position in node's incoming edge list
}

// Build returns schedule for the graph. Roots are visited in creation
// order and dependencies of a node in edge order, so unconstrained nodes
// keep their creation order and the result is reproducible.
func Build(nodes int, edges []Edge) Schedule {
	incoming := make([][]int, nodes)
	for i, e := range edges {
		incoming[e.To] = append(incoming[e.To], i)
	}

	s := Schedule{
		Order:    make([]int, 0, nodes),
		Deferred: make([]bool, len(edges)),
	}
	state := make([]int, nodes)
	var stack []frame
	for root := 0; root < nodes; root++ {
		if state[root] != unvisited {
			continue
		}
		state[root] = onStack
		stack = append(stack, frame{node: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := incoming[top.node]
			if top.next == len(deps) {
				// all dependencies are emitted
				state[top.node] = done
				s.Order = append(s.Order, top.node)
				stack = stack[:len(stack)-1]
				continue
			}
			edge := deps[top.next]
			top.next++
			src := edges[edge].From
			switch state[src] {
			case onStack:
				s.Deferred[edge] = true
			case unvisited:
				state[src] = onStack
				stack = append(stack, frame{node: src})
			}
		}
	}
	if len(s.Order) != nodes {
		panic("schedule: not every node is ordered")
	}
	return s
}

// Positions returns position of every node in the order.
func (s Schedule) Positions() []int {
	pos := make([]int, len(s.Order))
	for i, n := range s.Order {
		pos[n] = i
	}
	return pos
}

// Validate returns index of the first forward edge which is not satisfied
// by the order or -1 if the schedule is valid.
func (s Schedule) Validate(edges []Edge) int {
	pos := s.Positions()
	for i, e := range edges {
		if s.Deferred[i] {
			continue
		}
		if pos[e.From] >= pos[e.To] {
			return i
		}
	}
	return -1
}
