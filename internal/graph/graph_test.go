package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T) *Graph {
	t.Helper()
	g, err := Build(
		[]User{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}},
		[]Edge{{A: 1, B: 2}, {A: 2, B: 3}},
	)
	require.NoError(t, err)
	return g
}

func TestBuildBothDirections(t *testing.T) {
	g := chain(t)

	a, err := g.UserByID(1)
	require.NoError(t, err)
	b, err := g.UserByName("B")
	require.NoError(t, err)
	c, err := g.UserByID(3)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, a.Contacts)
	assert.Equal(t, []int{1, 3}, b.Contacts)
	assert.Equal(t, []int{2}, c.Contacts)
	assert.Equal(t, 3, g.Len())
}

func TestBuildKeepsRepeatedEdges(t *testing.T) {
	g, err := Build(
		[]User{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}},
		[]Edge{{A: 1, B: 2}, {A: 1, B: 2}},
	)
	require.NoError(t, err)

	a, _ := g.UserByID(1)
	assert.Equal(t, []int{2, 2}, a.Contacts)
}

func TestBuildUnknownEdgeID(t *testing.T) {
	_, err := Build([]User{{ID: 1, Name: "A"}}, []Edge{{A: 1, B: 9}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, ByID, lookupErr.Kind)
	assert.Equal(t, "9", lookupErr.Key)
}

func TestBuildDuplicateUsers(t *testing.T) {
	_, err := Build([]User{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}, nil)
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = Build([]User{{ID: 1, Name: "A"}, {ID: 2, Name: "A"}}, nil)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	users := []User{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	_, err := Build(users, []Edge{{A: 1, B: 2}})
	require.NoError(t, err)
	assert.Nil(t, users[0].Contacts)
}

func TestUserByNameMissing(t *testing.T) {
	g := chain(t)
	_, err := g.UserByName("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, `no user with name "nobody"`)
}

func TestResetProcessed(t *testing.T) {
	g := chain(t)
	root, _ := g.UserByID(1)
	g.Extract(root, 2)
	assert.Equal(t, 2, g.ProcessedCount())

	g.ResetProcessed()
	assert.Equal(t, 0, g.ProcessedCount())
	g.ResetProcessed()
	assert.Equal(t, 0, g.ProcessedCount())
}
