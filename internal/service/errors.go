package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means there is not enough history to predict from
	ErrInsufficientData = errors.New("insufficient data")
	// ErrFetch wraps storage or network failures while loading history
	ErrFetch = errors.New("fetching history")
	// ErrInvalidRequest wraps request validation failures
	ErrInvalidRequest = errors.New("invalid request")
)

// InsufficientDataError carries guidance on what to record next.
// It matches ErrInsufficientData with errors.Is.
type InsufficientDataError struct {
	Races      int
	Activities int
	Guidance   []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d usable races and %d activities, need at least 2 combined",
		ErrInsufficientData, e.Races, e.Activities)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

func fetchError(err error) error {
	return fmt.Errorf("%w: %w", ErrFetch, err)
}
