// Package bmmap ties a loaded contact graph to a display: it picks the
// neighbourhood of a user and merges it into what is already rendered.
package bmmap

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/psidex/bmmap/internal/display"
	"github.com/psidex/bmmap/internal/graph"
	"github.com/psidex/bmmap/internal/lib"
	"github.com/psidex/bmmap/internal/metrics"
)

// ExpandDepth is the bound used when a rendered node is expanded in place.
const ExpandDepth = 1

// MaxDepth caps the traversal bound accepted from operators.
const MaxDepth = 8

// Result describes one render or expand.
type Result struct {
	Root  int            `json:"root"`
	Depth int            `json:"depth"`
	Nodes []display.Node `json:"nodes"`
	Edges []display.Edge `json:"edges"`
	// NodesAdded is how many of Nodes were not rendered yet.
	NodesAdded int `json:"nodesAdded"`
	EdgesAdded int `json:"edgesAdded"`
	// Displayed is the number of rendered users after the merge.
	Displayed int `json:"displayed"`
	// RenderFailed reports a display failure, the extraction still happened.
	RenderFailed bool `json:"renderFailed,omitempty"`
}

// Stats is a point in time view of the session.
type Stats struct {
	Users     int `json:"users"`
	Processed int `json:"processed"`
	Displayed int `json:"displayed"`
}

// Explorer is one exploration session over a graph. All operations run one at a
// time and to completion.
type Explorer struct {
	mu      *sync.Mutex
	logger  *slog.Logger
	graph   *graph.Graph
	display display.Display
	acc     *display.Accumulator
	metrics *metrics.Metrics
}

func NewExplorer(logger *slog.Logger, g *graph.Graph, d display.Display, m *metrics.Metrics) *Explorer {
	if logger == nil {
		logger = lib.DiscardLogger()
	}
	return &Explorer{
		mu:      &sync.Mutex{},
		logger:  logger,
		graph:   g,
		display: d,
		acc:     display.NewAccumulator(logger, d),
		metrics: m,
	}
}

// Render merges the neighbourhood of the named user, depth hops deep, into the
// display. An unknown name returns a *graph.LookupError and changes nothing.
func (e *Explorer) Render(userName string, depth int) (Result, error) {
	if depth < 0 || depth > MaxDepth {
		e.metrics.Render("render", "invalid")
		return Result{}, fmt.Errorf("%w: got %d, want 0..%d", graph.ErrInvalidDepth, depth, MaxDepth)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	root, err := e.graph.UserByName(userName)
	if err != nil {
		e.metrics.Render("render", "not_found")
		return Result{}, err
	}
	return e.merge("render", root, depth), nil
}

// Expand merges the direct contacts of the user with the given id, as a double
// click on a rendered node does.
func (e *Explorer) Expand(userID int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root, err := e.graph.UserByID(userID)
	if err != nil {
		e.metrics.Render("expand", "not_found")
		return Result{}, err
	}
	return e.merge("expand", root, ExpandDepth), nil
}

func (e *Explorer) merge(op string, root *graph.User, depth int) Result {
	sub := e.graph.Extract(root, depth)
	e.logger.Debug("built subtree", "op", op, "root", root.ID, "depth", depth,
		"nodes", len(sub.Nodes), "edges", len(sub.Edges))

	merged := e.acc.Merge(sub)
	e.metrics.Merged(merged.NodesAdded, merged.EdgesAdded, merged.Failed, e.acc.Size())
	if merged.Failed {
		e.metrics.Render(op, "render_error")
	} else {
		e.metrics.Render(op, "ok")
	}

	return Result{
		Root:         root.ID,
		Depth:        depth,
		Nodes:        display.NodesOf(sub.Nodes),
		Edges:        display.EdgesOf(sub.Edges),
		NodesAdded:   merged.NodesAdded,
		EdgesAdded:   merged.EdgesAdded,
		Displayed:    e.acc.Size(),
		RenderFailed: merged.Failed,
	}
}

// Reset clears the display and forgets which users were expanded.
func (e *Explorer) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.acc.Reset()
	e.graph.ResetProcessed()
	e.metrics.Reset()
	e.logger.Info("explorer reset")
}

// ErrNoSnapshot is returned when the display cannot report its contents.
var ErrNoSnapshot = errors.New("display does not keep a snapshot")

// Snapshot returns what the display currently renders.
func (e *Explorer) Snapshot() (nodes []display.Node, edges []display.Edge, err error) {
	err = e.WithSnapshot(func(n []display.Node, l []display.Edge) error {
		nodes, edges = n, l
		return nil
	})
	return nodes, edges, err
}

// WithSnapshot calls fn with the rendered data while no other operation can run,
// so fn can hand the data to a new subscriber without missing an update.
func (e *Explorer) WithSnapshot(fn func([]display.Node, []display.Edge) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := display.SnapshotterOf(e.display)
	if !ok {
		return ErrNoSnapshot
	}
	nodes, edges := s.Snapshot()
	return fn(nodes, edges)
}

func (e *Explorer) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		Users:     e.graph.Len(),
		Processed: e.graph.ProcessedCount(),
		Displayed: e.acc.Size(),
	}
}
