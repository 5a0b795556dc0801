package entities

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDeck              = errors.New("deck has no cards")
	ErrDuplicateCard          = errors.New("duplicate card id in deck")
	ErrInvalidStateTransition = errors.New("invalid session state transition")
	ErrInvalidQuality         = errors.New("quality must be between 0 and 5")
	ErrDeckNotFound           = errors.New("deck not found")
)

// PersistenceError reports a failure of the response sink.
type PersistenceError struct {
	Op  string // operation that failed, e.g. "save submission"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
