package graph

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports that the graph is not a DAG. It carries the ids of the
// nodes that could not be reached by a topological ordering, which is exactly
// the set participating in (or downstream of) a cycle.
type CycleError struct {
	Unreached []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("workflow graph contains a cycle among nodes: %s", strings.Join(e.Unreached, ", "))
}

// ComputeOrder returns a dependency-respecting execution order for the graph
// using Kahn's algorithm. For a fixed graph the result is always the same
// sequence: ties among ready nodes are broken by node declaration order,
// which keeps replays and tests reproducible.
func (g *Graph) ComputeOrder() ([]string, error) {
	adjacency := make(map[string][]string, len(g.nodes))
	inDegree := make(map[string]int, len(g.nodes))

	// Isolated nodes still get an adjacency entry and in-degree 0 so they
	// appear in the order as entry points.
	for _, node := range g.nodes {
		adjacency[node.ID] = nil
		inDegree[node.ID] = 0
	}

	for _, edge := range g.edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	order := make([]string, 0, len(g.nodes))

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, target := range adjacency[current] {
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if len(order) < len(g.nodes) {
		return nil, &CycleError{Unreached: g.unreached(order)}
	}

	return order, nil
}

func (g *Graph) unreached(order []string) []string {
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}

	missing := make([]string, 0, len(g.nodes)-len(order))

	for _, node := range g.nodes {
		if !seen[node.ID] {
			missing = append(missing, node.ID)
		}
	}

	sort.Strings(missing)

	return missing
}
