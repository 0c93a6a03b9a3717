package smsg

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxUsernameLen bounds usernames, which are embedded in key file names.
const MaxUsernameLen = 64

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidateUsername checks that username is non-empty and safe to embed in a
// file name: letters, digits, '_', '-' and '.', not starting with '.'.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	if len(username) > MaxUsernameLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, MaxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: %q may only contain letters, digits, '_', '-' and '.'", ErrInvalidUsername, username)
	}
	return nil
}
