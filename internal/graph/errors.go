package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by every LookupError.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned by Build when two users share an id or a name.
	ErrDuplicateUser = errors.New("duplicate user")
	// ErrInvalidDepth rejects negative traversal bounds.
	ErrInvalidDepth = errors.New("depth must not be negative")
)

// LookupKind says which index a failed lookup went through.
type LookupKind string

const (
	ByID   LookupKind = "id"
	ByName LookupKind = "name"
)

// LookupError reports a user that is missing from one of the graph indices.
type LookupError struct {
	Kind LookupKind
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no user with %s %q", e.Kind, e.Key)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}
