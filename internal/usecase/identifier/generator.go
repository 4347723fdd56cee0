// Package identifier issues and validates human-readable identifiers such as
// instrument serial numbers (VI001) and client numbers (CL001).
package identifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultPrefix is used when a classification matches no keyword
	DefaultPrefix = "IN"
	// ClientPrefix is the fixed prefix for client numbers
	ClientPrefix = "CL"

	minOrdinalWidth = 3
	maxLength       = 20
)

// prefixRule maps classification keywords (English and Korean) to a two-letter prefix.
// Order matters: the first rule with a matching keyword wins, so more specific
// keywords ("contrabass", "cello" in "violoncello") come before generic ones.
type prefixRule struct {
	keywords []string
	prefix   string
}

var prefixRules = []prefixRule{
	{keywords: []string{"contrabass", "double bass", "콘트라베이스"}, prefix: "DB"},
	{keywords: []string{"cello", "첼로"}, prefix: "VC"},
	{keywords: []string{"viola", "비올라"}, prefix: "VA"},
	{keywords: []string{"violin", "바이올린"}, prefix: "VI"},
	{keywords: []string{"bass", "베이스"}, prefix: "DB"},
	{keywords: []string{"bow", "활"}, prefix: "BO"},
}

var (
	trailingDigits = regexp.MustCompile(`[0-9]+$`)
	validPattern   = regexp.MustCompile(`^[A-Z0-9]{1,20}$`)
)

// Validation is the outcome of Validate. Error is empty when Valid is true.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ResolvePrefix maps an instrument classification to its identifier prefix.
// Matching is a case-insensitive substring search; blank or unknown input yields DefaultPrefix.
func ResolvePrefix(classification string) string {
	folded := fold(strings.TrimSpace(classification))
	if folded == "" {
		return DefaultPrefix
	}

	for _, rule := range prefixRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(folded, fold(keyword)) {
				return rule.prefix
			}
		}
	}

	return DefaultPrefix
}

// Next returns the next identifier for the given classification
func Next(classification string, existing []string) string {
	return NextWithPrefix(ResolvePrefix(classification), existing)
}

// NextWithPrefix returns <prefix><ordinal> where ordinal is one past the highest
// trailing number among existing identifiers sharing the prefix.
// The ordinal is zero-padded to three digits and grows past 999 without truncation.
func NextWithPrefix(prefix string, existing []string) string {
	prefix = Normalize(prefix)
	foldedPrefix := fold(prefix)

	highest := 0
	for _, id := range existing {
		if !strings.HasPrefix(fold(strings.TrimSpace(id)), foldedPrefix) {
			continue
		}
		digits := trailingDigits.FindString(strings.TrimSpace(id))
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	return fmt.Sprintf("%s%0*d", prefix, minOrdinalWidth, highest+1)
}

// Validate checks a candidate identifier against the format rules and the set of
// identifiers already in use. current is the identifier already assigned to the
// entity being edited and never counts as a conflict.
// A blank candidate is valid because the field is optional.
func Validate(candidate string, existing []string, current string) Validation {
	normalized := Normalize(candidate)
	if normalized == "" {
		return Validation{Valid: true}
	}

	foldedCandidate := fold(normalized)
	foldedCurrent := fold(Normalize(current))
	for _, id := range existing {
		foldedID := fold(Normalize(id))
		if foldedID == "" || (foldedCurrent != "" && foldedID == foldedCurrent) {
			continue
		}
		if foldedID == foldedCandidate {
			return Validation{Valid: false, Error: fmt.Sprintf("identifier %s is already in use", normalized)}
		}
	}

	if !validPattern.MatchString(normalized) {
		return Validation{
			Valid: false,
			Error: fmt.Sprintf("identifier must be 1-%d characters using only A-Z and 0-9", maxLength),
		}
	}

	return Validation{Valid: true}
}

// Normalize trims and upper-cases an identifier. The empty string stays empty.
func Normalize(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	return cases.Upper(language.Und).String(trimmed)
}

func fold(s string) string {
	return cases.Fold().String(s)
}
