// Package validate classifies user supplied strings.
package validate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/samber/oops"
)

// Kind selects the classification applied by Validate.
type Kind string

const (
	Email        Kind = "email"
	Alphanumeric Kind = "alphanumeric"
	Numeric      Kind = "numeric"
	NonEmpty     Kind = "nonEmpty"
)

// ErrUnknownKind is returned when Validate is called with an unsupported Kind.
var ErrUnknownKind = errors.New("unknown validation kind")

// The alphanumeric whitespace class spans ASCII \s plus \v and the Unicode
// space separators.
var (
	emailPattern        = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	alphanumericPattern = regexp.MustCompile(`^[\w\-\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+$`)
	numericPattern      = regexp.MustCompile(`^\d+$`)
)

// Validate reports whether input satisfies kind. An unknown kind is a caller bug
// and yields an error instead of a verdict.
func Validate(input string, kind Kind) (bool, error) {
	switch kind {
	case Email:
		return IsEmail(input), nil
	case Alphanumeric:
		return IsAlphanumeric(input), nil
	case Numeric:
		return IsNumeric(input), nil
	case NonEmpty:
		return IsNonEmpty(input), nil
	default:
		return false, oops.Code("VALIDATE_UNKNOWN_KIND").With("kind", string(kind)).Wrap(ErrUnknownKind)
	}
}

// IsEmail reports whether s looks like local@domain.tld.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsAlphanumeric reports whether s holds only word characters, hyphens and whitespace.
func IsAlphanumeric(s string) bool {
	return alphanumericPattern.MatchString(s)
}

// IsNumeric reports whether s is a non-empty run of digits.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// IsNonEmpty reports whether s has content after trimming whitespace.
func IsNonEmpty(s string) bool {
	return len(strings.TrimSpace(s)) > 0
}
