// Package graph holds the contact graph of a loaded dataset and the bounded-depth
// traversal used to pick the neighbourhood of a user.
package graph

import (
	"fmt"
	"strconv"
)

// User is one account of the dataset. Contacts holds user ids in edge order and
// is resolved through the graph's id index.
type User struct {
	ID        int    `json:"userId"`
	Name      string `json:"userName"`
	Title     string `json:"title,omitempty"`
	Contacts  []int  `json:"-"`
	Processed bool   `json:"-"`

	processedAt uint64
}

// Edge is an undirected contact between the users with ids A and B.
type Edge struct {
	A int `json:"A"`
	B int `json:"B"`
}

// Graph is built once per dataset and afterwards only mutated in place.
// It is not safe for concurrent use; callers serialise access.
type Graph struct {
	users  []*User
	byID   map[int]*User
	byName map[string]*User
	// clock orders expansions so an edge is emitted by whichever end was
	// expanded first.
	clock uint64
}

// Build indexes users by id and by name and fills in the contact lists from
// edges, both directions per edge. Repeated edges give repeated contacts.
// An edge that references an unknown id fails the whole build.
func Build(users []User, edges []Edge) (*Graph, error) {
	g := &Graph{
		users:  make([]*User, 0, len(users)),
		byID:   make(map[int]*User, len(users)),
		byName: make(map[string]*User, len(users)),
	}

	for i := range users {
		u := users[i]
		u.Contacts = nil
		u.Processed = false
		u.processedAt = 0
		if _, ok := g.byID[u.ID]; ok {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateUser, u.ID)
		}
		if _, ok := g.byName[u.Name]; ok {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateUser, u.Name)
		}
		g.users = append(g.users, &u)
		g.byID[u.ID] = &u
		g.byName[u.Name] = &u
	}

	for _, e := range edges {
		a, err := g.lookupID(e.A)
		if err != nil {
			return nil, fmt.Errorf("edge %d-%d: %w", e.A, e.B, err)
		}
		b, err := g.lookupID(e.B)
		if err != nil {
			return nil, fmt.Errorf("edge %d-%d: %w", e.A, e.B, err)
		}
		a.Contacts = append(a.Contacts, b.ID)
		b.Contacts = append(b.Contacts, a.ID)
	}

	return g, nil
}

func (g *Graph) lookupID(id int) (*User, error) {
	if u, ok := g.byID[id]; ok {
		return u, nil
	}
	return nil, &LookupError{Kind: ByID, Key: strconv.Itoa(id)}
}

// UserByID returns the user with the given id or a *LookupError.
func (g *Graph) UserByID(id int) (*User, error) {
	return g.lookupID(id)
}

// UserByName returns the user with the given name or a *LookupError.
func (g *Graph) UserByName(name string) (*User, error) {
	if u, ok := g.byName[name]; ok {
		return u, nil
	}
	return nil, &LookupError{Kind: ByName, Key: name}
}

// Users returns the users in input order.
func (g *Graph) Users() []*User {
	return g.users
}

func (g *Graph) Len() int {
	return len(g.users)
}

// ProcessedCount is the number of users whose contacts have been emitted since
// the last reset.
func (g *Graph) ProcessedCount() int {
	n := 0
	for _, u := range g.users {
		if u.Processed {
			n++
		}
	}
	return n
}

func (g *Graph) markProcessed(u *User) {
	g.clock++
	u.Processed = true
	u.processedAt = g.clock
}

// ResetProcessed clears the processed flag on every user.
func (g *Graph) ResetProcessed() {
	for _, u := range g.users {
		u.Processed = false
		u.processedAt = 0
	}
	g.clock = 0
}
