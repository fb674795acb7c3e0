package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxKeyLength bounds user-supplied cache keys.
const MaxKeyLength = 200

// keyRegex matches keys that are safe as cache keys, Mongo ids and URL
// path segments.
var keyRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateKey validates a user-supplied graph key.
//
// Keys must be non-empty, at most MaxKeyLength characters, start with an
// alphanumeric character, and contain only letters, digits, '.', '_', ':'
// and '-'. Path traversal sequences are rejected.
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return New(ErrCodeInvalidKey, "key too long (max %d characters)", MaxKeyLength)
	}
	if strings.Contains(key, "..") {
		return New(ErrCodeInvalidKey, "key cannot contain path traversal sequences (..)")
	}
	if !keyRegex.MatchString(key) {
		return New(ErrCodeInvalidKey, "invalid key: %q", key)
	}
	return nil
}

// ValidateNodePath validates the identity path of a plan node.
// Paths are free-form but must be non-empty and free of control characters.
func ValidateNodePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPlan, "node path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPlan, "node path %q contains control characters", path)
		}
	}
	return nil
}

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
