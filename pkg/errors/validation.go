package errors

import (
	"strings"
	"unicode"
)

// ValidatePath validates a user supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateRef validates a git revision name such as a branch, tag or hash.
// An empty ref is valid and means HEAD.
//
// The rules follow git-check-ref-format loosely:
//   - No control characters or spaces
//   - No "..", "@{", "\\" or any of :?*[
//   - Cannot start with "-" (would be parsed as a flag)
//   - Cannot end with "/" or ".lock"
func ValidateRef(ref string) error {
	if ref == "" {
		return nil
	}
	if len(ref) > 256 {
		return New(ErrCodeInvalidRef, "ref too long (max 256 characters)")
	}
	if strings.HasPrefix(ref, "-") {
		return New(ErrCodeInvalidRef, "ref cannot start with '-'")
	}
	if strings.HasSuffix(ref, "/") || strings.HasSuffix(ref, ".lock") {
		return New(ErrCodeInvalidRef, "ref has an invalid suffix: %q", ref)
	}
	for _, r := range ref {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidRef, "ref contains invalid characters")
		}
	}
	for _, pattern := range []string{"..", "@{", "\\"} {
		if strings.Contains(ref, pattern) {
			return New(ErrCodeInvalidRef, "ref contains invalid sequence: %q", pattern)
		}
	}
	if strings.ContainsAny(ref, ":?*[") {
		return New(ErrCodeInvalidRef, "ref contains invalid characters")
	}
	return nil
}
