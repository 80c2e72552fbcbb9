package questionbank

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInput is returned before any work starts when a request is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned by a subject store when a code is already taken.
	ErrDuplicateCode = errors.New("duplicate subject code")

	// ErrSubjectResolution is returned when no subject could be found or created.
	ErrSubjectResolution = errors.New("subject resolution failed")

	// ErrRemoteUnavailable means the remote generation service produced nothing usable.
	ErrRemoteUnavailable = errors.New("remote generation unavailable")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ParseMarks converts user supplied marks to a number
func ParseMarks(s string) (float64, error) {
	m, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, invalidInput("marks %q is not a number", s)
	}
	if err := checkMarks(m); err != nil {
		return 0, err
	}
	return m, nil
}

func checkMarks(m float64) error {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return invalidInput("marks must be a finite number")
	}
	if m < 0 {
		return invalidInput("marks must not be negative, got %v", m)
	}
	return nil
}

// formatMarks renders marks the way they appear in the "(<marks> marks) " tag
func formatMarks(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
