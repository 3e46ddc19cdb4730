package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryUnavailable means no registry has been loaded yet.
	ErrRegistryUnavailable = errors.New("registry unavailable")
	// ErrRegionNotFound means the id is not part of the loaded registry.
	ErrRegionNotFound = errors.New("region not found")
	// ErrLoadSuperseded means a newer registry load started before this one finished.
	ErrLoadSuperseded = errors.New("registry load superseded")
)

// FetchError reports a failed or unparsable boundary-data provider call.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch boundaries: %s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// AssemblyError reports a relation whose ways could not be stitched into any closed ring.
// It is never fatal: the relation is excluded from the registry.
type AssemblyError struct {
	RelationID int64  `json:"relation_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble relation %d (%s): %s", e.RelationID, e.Name, e.Reason)
}

// PersistenceReadError reports a missing or malformed persisted visited set.
type PersistenceReadError struct {
	Key string
	Err error
}

func (e *PersistenceReadError) Error() string {
	return fmt.Sprintf("read visited set %q: %v", e.Key, e.Err)
}
func (e *PersistenceReadError) Unwrap() error { return e.Err }

// PersistenceWriteError reports a failed write of the visited set.
type PersistenceWriteError struct {
	Key string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("write visited set %q: %v", e.Key, e.Err)
}
func (e *PersistenceWriteError) Unwrap() error { return e.Err }
