package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a definition, session or remote resource
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTurnTimeout reports that a turn exceeded its execution deadline.
	ErrTurnTimeout = errors.New("turn timed out")

	// ErrNoSuccessor reports a hand-off attempt from an agent whose
	// definition names no successor.
	ErrNoSuccessor = errors.New("agent has no successor")

	// ErrDuplicateModule reports a module name collision.
	ErrDuplicateModule = errors.New("module name already exists")
)

// ProviderError wraps a failure from the model provider, preserving the
// operation and remote resource involved.
type ProviderError struct {
	Op       string
	Resource string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("provider: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider: %s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with the failing operation and resource id.
func NewProviderError(op, resource string, err error) *ProviderError {
	return &ProviderError{Op: op, Resource: resource, Err: err}
}

// ResourceKind names a class of remote resource handled during teardown.
type ResourceKind string

const (
	ResourceAgent       ResourceKind = "agent"
	ResourceFile        ResourceKind = "file"
	ResourceVectorStore ResourceKind = "vector_store"
	ResourceThread      ResourceKind = "thread"
)

// ResourceFailure records one remote deletion that failed during teardown.
type ResourceFailure struct {
	Kind ResourceKind
	ID   string
	Err  error
}

// TeardownResult aggregates the outcome of a full conversation teardown.
// Already-absent resources count as deleted; Failures holds only genuine
// errors. A result with no failures means every resource is gone.
type TeardownResult struct {
	AgentsDeleted      int
	FilesDeleted       int
	VectorStoreDeleted bool
	ThreadDeleted      bool
	Failures           []ResourceFailure
}

// OK reports whether teardown released every resource.
func (r *TeardownResult) OK() bool { return len(r.Failures) == 0 }

// Err returns nil when teardown fully succeeded, otherwise a single error
// summarizing the failed deletions.
func (r *TeardownResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s %s: %w", f.Kind, f.ID, f.Err))
	}
	return fmt.Errorf("teardown incomplete: %w", errors.Join(errs...))
}
