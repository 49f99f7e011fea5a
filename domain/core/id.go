package core

import (
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies a single test execution through the service layer.
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// NewRunID creates a fresh, time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a client-supplied run ID. Errors wrap ErrInvalidRunID.
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewInputError(ErrInvalidRunID, "empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", NewInputError(ErrInvalidRunID, "%q is not a UUID: %v", s, err)
	}
	return RunID(s), nil
}

// TestKind names the randomization procedure a run executed.
type TestKind string

const (
	TestTwoSample    TestKind = "two_sample"
	TestOneSample    TestKind = "one_sample"
	TestConfInt      TestKind = "two_sample_conf_int"
	TestCorrelation  TestKind = "corr"
	TestBinomConfInt TestKind = "binom_conf_int"
)
