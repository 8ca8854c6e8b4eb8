package service

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated aborts a sync before any network call.
var ErrNotAuthenticated = errors.New("Not authenticated")

// ListFetchError means the remote snapshot for an entity type could not be
// fetched. It aborts the whole sync.
type ListFetchError struct {
	Entity string
	Err    error
}

// Error returns the underlying message; it is what callers surface to users.
func (e *ListFetchError) Error() string { return e.Err.Error() }

func (e *ListFetchError) Unwrap() error { return e.Err }

// ItemError is a failure to create, update or fetch one entity. It is logged
// and absorbed; the entity is retried on the next sync.
type ItemError struct {
	Entity string
	ID     string
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// MappingError is a remote payload that cannot be turned into a local entity.
// It is handled like an ItemError.
type MappingError struct {
	Entity string
	ID     string
	Err    error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("map %s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

func errUnknownObjective(id string) error {
	return fmt.Errorf("objective %s is not known locally", id)
}
