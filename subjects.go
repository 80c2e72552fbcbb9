package questionbank

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxSubjectCodeLength is the longest subject code the store accepts
	MaxSubjectCodeLength = 10

	// DefaultSubjectCode is used when nothing alphanumeric is left of a name
	DefaultSubjectCode = "GEN"

	// DefaultSubjectName names the subject of questions that carry none
	DefaultSubjectName = "General"

	collisionSuffixRange = 1000
)

// SubjectStore finds and creates subjects. Finders return an error
// wrapping ErrNotFound when nothing matches; CreateSubject returns one
// wrapping ErrDuplicateCode when the code is taken.
type SubjectStore interface {
	FindSubjectByID(id int64) (*Subject, error)
	FindSubjectByCode(code string) (*Subject, error)
	FindSubjectByName(name string) (*Subject, error)
	CreateSubject(name, code string) (*Subject, error)
}

// NormalizeSubjectCode upper-cases s, keeps only A-Z and 0-9 and truncates
// to MaxSubjectCodeLength, falling back to DefaultSubjectCode.
func NormalizeSubjectCode(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			if sb.Len() == MaxSubjectCodeLength {
				break
			}
		}
	}
	if sb.Len() == 0 {
		return DefaultSubjectCode
	}
	return sb.String()
}

// createSubject creates a subject under base and, on a code collision,
// retries exactly once with base plus a random suffix in [0, 999].
func createSubject(store SubjectStore, rnd Rand, name, base string) (*Subject, error) {
	subj, err := store.CreateSubject(name, base)
	if err == nil {
		return subj, nil
	}
	if !errors.Is(err, ErrDuplicateCode) {
		return nil, fmt.Errorf("%w: create subject %q: %w", ErrSubjectResolution, base, err)
	}

	alt := base + strconv.Itoa(rnd.Intn(collisionSuffixRange))
	GetLogger().Info("subject code taken, retrying with suffix", "code", base, "alternate", alt)
	subj, err = store.CreateSubject(name, alt)
	if err != nil {
		return nil, fmt.Errorf("%w: create subject %q: %w", ErrSubjectResolution, alt, err)
	}
	return subj, nil
}

// EnsureSubject finds the subject whose code is the normalized form of code
// (or of name when code is empty) and creates it when missing.
func EnsureSubject(store SubjectStore, rnd Rand, name, code string) (*Subject, error) {
	if rnd == nil {
		rnd = DefaultRand
	}
	base := NormalizeSubjectCode(firstNonEmpty(code, name))
	subj, err := store.FindSubjectByCode(base)
	if err == nil {
		return subj, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrSubjectResolution, err)
	}
	return createSubject(store, rnd, name, base)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
