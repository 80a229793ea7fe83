package errors

import (
	"regexp"
	"strings"
)

// GitHub logins are alphanumeric with single interior hyphens, max 39 chars.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)

// maxUsernameLength is the maximum length GitHub allows for a login.
const maxUsernameLength = 39

// ValidateUsername checks that name is a plausible GitHub login.
// Returns an *Error with ErrCodeInvalidUsername describing the problem,
// or nil if the name is acceptable.
func ValidateUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(ErrCodeInvalidUsername, "username is empty")
	}
	if len(name) > maxUsernameLength {
		return New(ErrCodeInvalidUsername, "username %q exceeds %d characters", name, maxUsernameLength)
	}
	if !usernamePattern.MatchString(name) {
		return New(ErrCodeInvalidUsername, "username %q contains invalid characters", name)
	}
	return nil
}

// ValidateOutputDir checks that dir is a usable output directory path.
// It rejects empty paths and paths containing NUL bytes; existence is not
// required since the writer creates the directory on demand.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return New(ErrCodeInvalidPath, "output directory is empty")
	}
	if strings.ContainsRune(dir, 0) {
		return New(ErrCodeInvalidPath, "output directory contains invalid characters")
	}
	return nil
}
