// Package graph holds the immutable workflow graph and its execution-order
// computation.
package graph

import (
	"errors"
	"fmt"

	"github.com/civicops/complaintflow/pkg/models"
)

var (
	// ErrDuplicateNode indicates two nodes share one id within a graph.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrNodeNotFound indicates an edge references a node id absent from the
	// node set. This is a configuration error, fatal at build time.
	ErrNodeNotFound = errors.New("edge references unknown node")
)

// Graph is the validated, immutable representation of a workflow definition.
// Custom node kinds are resolved from labels once here, so the executor
// dispatches on the enum.
type Graph struct {
	nodes []*models.Node
	edges []*models.Edge
	byID  map[string]*models.Node
	kinds map[string]models.CustomNodeKind
}

// Build validates structural well-formedness (unique node ids, edge endpoint
// references) and resolves custom node kinds. Cycle detection is deferred to
// ComputeOrder since it requires full-graph analysis.
func Build(nodes []*models.Node, edges []*models.Edge) (*Graph, error) {
	byID := make(map[string]*models.Node, len(nodes))
	kinds := make(map[string]models.CustomNodeKind)

	for _, node := range nodes {
		if _, exists := byID[node.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}

		byID[node.ID] = node

		if node.Type == models.NodeTypeCustom {
			kinds[node.ID] = models.ResolveCustomKind(node.Label)
		}
	}

	for _, edge := range edges {
		if _, ok := byID[edge.Source]; !ok {
			return nil, fmt.Errorf("%w: edge %s source %s", ErrNodeNotFound, edge.ID, edge.Source)
		}

		if _, ok := byID[edge.Target]; !ok {
			return nil, fmt.Errorf("%w: edge %s target %s", ErrNodeNotFound, edge.ID, edge.Target)
		}
	}

	return &Graph{
		nodes: nodes,
		edges: edges,
		byID:  byID,
		kinds: kinds,
	}, nil
}

// NodeByID returns the node with the given id, if present.
func (g *Graph) NodeByID(id string) (*models.Node, bool) {
	node, ok := g.byID[id]

	return node, ok
}

// KindOf returns the resolved kind for a custom node. Non-custom node ids
// return KindUnknown.
func (g *Graph) KindOf(nodeID string) models.CustomNodeKind {
	return g.kinds[nodeID]
}

// Nodes returns the node set in declaration order.
func (g *Graph) Nodes() []*models.Node {
	return g.nodes
}

// Edges returns the edge set in declaration order.
func (g *Graph) Edges() []*models.Edge {
	return g.edges
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int {
	return len(g.nodes)
}
