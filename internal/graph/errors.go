package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidReference    = errors.New("invalid predecessor reference")
	ErrCyclicDependency    = errors.New("circular dependency detected")
	ErrDuplicateActivityID = errors.New("duplicate activity id")
	ErrInvalidActivity     = errors.New("invalid activity")
)

// InvalidReferenceError reports a predecessor id that is not in the activity set.
type InvalidReferenceError struct {
	ActivityID string // the activity declaring the predecessor
	MissingID  string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid predecessor '%s' for activity '%s'", e.MissingID, e.ActivityID)
}

func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// DuplicateActivityIDError reports two input records sharing an id.
type DuplicateActivityIDError struct {
	ID string
}

func (e *DuplicateActivityIDError) Error() string {
	return fmt.Sprintf("duplicate activity id '%s'", e.ID)
}

func (e *DuplicateActivityIDError) Unwrap() error { return ErrDuplicateActivityID }

// CyclicDependencyError reports activities that could never be scheduled
// because their predecessors form a cycle.
type CyclicDependencyError struct {
	Unscheduled []string // activities left after the topological sort drained
	Cycle       []string // one concrete cycle, first id repeated at the end
}

func (e *CyclicDependencyError) Error() string {
	msg := fmt.Sprintf("circular dependency detected (%d activities could not be scheduled: %s)",
		len(e.Unscheduled), strings.Join(e.Unscheduled, ", "))
	if len(e.Cycle) > 0 {
		msg += ": " + strings.Join(e.Cycle, " -> ")
	}
	return msg
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }
