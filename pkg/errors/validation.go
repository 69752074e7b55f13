package errors

import (
	"regexp"
	"time"
	"unicode"
)

// Board size limits accepted from users.
const (
	MinRadius = 1
	MaxRadius = 9
)

// MaxExactTime caps exact solve limits accepted from users.
const MaxExactTime = 30 * time.Minute

// aspectNameRegex matches aspect names as they appear in recipe books.
var aspectNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateAspectName validates an aspect name from user input.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Lowercase letters, digits, dash and underscore only
//   - Maximum length of 64 characters
func ValidateAspectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "aspect name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "aspect name too long (max 64 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "aspect name contains invalid control characters")
		}
	}

	if !aspectNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid aspect name: %q", name)
	}

	return nil
}

// ValidateRadius validates a board radius against [MinRadius, MaxRadius].
func ValidateRadius(radius int) error {
	if radius < MinRadius || radius > MaxRadius {
		return New(ErrCodeInvalidBoard, "radius %d out of range [%d, %d]", radius, MinRadius, MaxRadius)
	}
	return nil
}

// ValidateExactLimits validates exact solver limits. Zero means default.
func ValidateExactLimits(maxTime time.Duration, workers int) error {
	if maxTime < 0 || maxTime > MaxExactTime {
		return New(ErrCodeInvalidInput, "max time %s out of range (max %s)", maxTime, MaxExactTime)
	}
	if workers < 0 || workers > 64 {
		return New(ErrCodeInvalidInput, "num workers %d out of range [0, 64]", workers)
	}
	return nil
}
