// Package display merges traversal results into a live visualisation without
// rendering any user twice.
package display

import (
	"errors"
	"log/slog"

	"github.com/psidex/bmmap/internal/graph"
	"github.com/psidex/bmmap/internal/lib"
)

// MergeResult says what a Merge handed to the display.
type MergeResult struct {
	NodesAdded int
	EdgesAdded int
	// Failed is set when the display rejected the change. The user set is then
	// left as it was before the call.
	Failed bool
}

// Accumulator remembers which users are rendered. Every id in its user set is
// rendered exactly once by the display.
type Accumulator struct {
	logger      *slog.Logger
	display     Display
	userSet     lib.Set[int]
	initialized bool
}

func NewAccumulator(logger *slog.Logger, d Display) *Accumulator {
	if logger == nil {
		logger = lib.DiscardLogger()
	}
	return &Accumulator{
		logger:  logger,
		display: d,
		userSet: lib.NewSet[int](),
	}
}

// Merge renders the part of sub that is not yet on screen. The first merge after
// construction or Reset initialises the display with sub as is. Edges are never
// filtered.
func (a *Accumulator) Merge(sub graph.Subtree) MergeResult {
	ids := sub.NodeIDs()
	edges := EdgesOf(sub.Edges)

	if !a.initialized {
		nodes := NodesOf(sub.Nodes)
		if err := a.display.Init(nodes, edges); err != nil {
			a.logFailure("init", err)
			return MergeResult{Failed: true}
		}
		a.initialized = true
		a.userSet.Add(ids...)
		return MergeResult{NodesAdded: len(nodes), EdgesAdded: len(edges)}
	}

	fresh := make([]*graph.User, 0, len(sub.Nodes))
	for _, u := range sub.Nodes {
		if !a.userSet.Contains(u.ID) {
			fresh = append(fresh, u)
		}
	}

	nodes := NodesOf(fresh)
	if err := a.display.Add(nodes, edges); err != nil {
		a.logFailure("add", err)
		return MergeResult{Failed: true}
	}
	a.userSet.Add(ids...)

	return MergeResult{NodesAdded: len(nodes), EdgesAdded: len(edges)}
}

func (a *Accumulator) logFailure(op string, err error) {
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		err = &RenderError{Op: op, Err: err}
	}
	a.logger.Error("display update failed", "op", op, "error", err)
}

// Reset empties the user set and the display. It is safe to call repeatedly.
func (a *Accumulator) Reset() {
	a.userSet.Clear()
	a.initialized = false
	if err := a.display.Clear(); err != nil {
		a.logFailure("clear", err)
	}
}

func (a *Accumulator) Contains(id int) bool {
	return a.userSet.Contains(id)
}

// Size is the number of rendered users.
func (a *Accumulator) Size() int {
	return a.userSet.Size()
}

func (a *Accumulator) Initialized() bool {
	return a.initialized
}
