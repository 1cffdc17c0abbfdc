package graph

import (
	"github.com/psidex/bmmap/internal/lib"
)

// Link is a directed edge record as handed to the display.
type Link struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Subtree is the result of one extraction. Nodes holds each user at most once,
// the root first.
type Subtree struct {
	Nodes []*User
	Edges []Link
}

// NodeIDs returns the ids of s.Nodes in order.
func (s Subtree) NodeIDs() []int {
	ids := make([]int, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

type frame struct {
	user    *User
	depth   int
	next    int
	started bool
}

// Extract walks the contacts of root depth-first for at most depth hops.
//
// Every user whose contact list is walked is marked Processed and is not walked
// again until ResetProcessed. An edge towards a contact that was processed
// before the current user is skipped, that contact already emitted the pair in
// the other direction. A depth below one returns the root alone.
func (g *Graph) Extract(root *User, depth int) Subtree {
	out := Subtree{Nodes: []*User{root}}
	visited := map[int]struct{}{root.ID: {}}

	var stack lib.Stack[frame]
	stack.Push(frame{user: root, depth: depth})

	for stack.Len() > 0 {
		f := stack.Peek()

		if !f.started {
			if f.depth < 1 || f.user.Processed {
				stack.Pop()
				continue
			}
			f.started = true
			g.markProcessed(f.user)
		}

		if f.next >= len(f.user.Contacts) {
			stack.Pop()
			continue
		}

		c, ok := g.byID[f.user.Contacts[f.next]]
		f.next++
		if !ok {
			continue
		}

		if !c.Processed || c.processedAt > f.user.processedAt {
			out.Edges = append(out.Edges, Link{From: f.user.ID, To: c.ID})
		}

		if _, seen := visited[c.ID]; seen {
			continue
		}
		// Marked on push, before the descent. Marking after it would let a
		// contact reached again during the descent be appended a second time.
		visited[c.ID] = struct{}{}
		out.Nodes = append(out.Nodes, c)
		stack.Push(frame{user: c, depth: f.depth - 1})
	}

	return out
}
