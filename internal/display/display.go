package display

import (
	"fmt"

	"github.com/psidex/bmmap/internal/graph"
)

// Node is a rendered user.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Edge is a rendered contact, directed as it was emitted by the traversal.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Display is the visualisation side of the accumulator. Implementations own the
// rendered data set and may fail on any call, such failures are reported to the
// accumulator as errors and never retried.
type Display interface {
	// Init replaces whatever is rendered with nodes and edges.
	Init(nodes []Node, edges []Edge) error
	// Add inserts into the live data set. Node ids are never already present.
	Add(nodes []Node, edges []Edge) error
	// Clear removes every node and edge.
	Clear() error
}

// Snapshotter is implemented by displays that can report what they currently
// render.
type Snapshotter interface {
	Snapshot() ([]Node, []Edge)
}

// RenderError wraps a failure raised by a Display.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("display %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NodesOf converts users to display nodes labelled by user name.
func NodesOf(users []*graph.User) []Node {
	nodes := make([]Node, 0, len(users))
	for _, u := range users {
		nodes = append(nodes, Node{ID: u.ID, Label: u.Name})
	}
	return nodes
}

// EdgesOf converts traversal links to display edges.
func EdgesOf(links []graph.Link) []Edge {
	edges := make([]Edge, 0, len(links))
	for _, l := range links {
		edges = append(edges, Edge{From: l.From, To: l.To})
	}
	return edges
}
