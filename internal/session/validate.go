package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

// ValidationError describes a rejected field of a session creation request.
// Suggestion, when non-empty, names the closest accepted value.
type ValidationError struct {
	Field      string
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("session: invalid %s: %s (did you mean %q?)", e.Field, e.Reason, e.Suggestion)
	}
	return fmt.Sprintf("session: invalid %s: %s", e.Field, e.Reason)
}

// phoneNumberRe accepts E.164 numbers: a plus sign followed by 2 to 15 digits
// with a non-zero leading digit.
var phoneNumberRe = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidatePhoneNumber checks that number is a plausible E.164 phone number.
func ValidatePhoneNumber(number string) error {
	if number == "" {
		return &ValidationError{Field: "phone_number", Reason: "must not be empty"}
	}
	if !phoneNumberRe.MatchString(number) {
		return &ValidationError{
			Field:  "phone_number",
			Reason: fmt.Sprintf("%q is not in E.164 format (e.g. +14155550123)", number),
		}
	}
	return nil
}

// ValidateLanguage checks that code is one of the supported ISO 639-1 codes.
// For near misses the error carries the closest supported code as a
// suggestion, ranked by Jaro-Winkler similarity.
func ValidateLanguage(field, code string, supported []string) error {
	if code == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	norm := strings.ToLower(strings.TrimSpace(code))
	for _, s := range supported {
		if norm == s {
			return nil
		}
	}
	return &ValidationError{
		Field:      field,
		Reason:     fmt.Sprintf("unsupported language %q", code),
		Suggestion: nearestLanguage(norm, supported),
	}
}

// nearestLanguage returns the supported code most similar to input, or ""
// when nothing clears the similarity floor.
func nearestLanguage(input string, supported []string) string {
	const floor = 0.6
	best, bestScore := "", floor
	for _, s := range supported {
		score := matchr.JaroWinkler(input, s, false)
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return best
}
