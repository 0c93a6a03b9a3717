package smsg

import (
	"errors"
	"fmt"
)

// Validation errors. Reported to the caller, never retried.
var (
	ErrEmptyUsername     = errors.New("username cannot be empty")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrSelfSendRejected  = errors.New("cannot send a message to yourself")
	ErrEmptyMessage      = errors.New("message cannot be empty")
)

// Not-found errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Repository errors.
var (
	// ErrStorageUnavailable wraps any failure to reach or operate the storage engine.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrConstraintViolation reports a storage-level integrity violation.
	ErrConstraintViolation = errors.New("storage constraint violation")
)

// Crypto error kinds. A *CryptoError carries exactly one of these.
var (
	ErrToolUnavailable  = errors.New("crypto tool unavailable")
	ErrToolFailure      = errors.New("crypto tool failed")
	ErrMissingKey       = errors.New("key material missing")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrCryptoTimeout    = errors.New("crypto tool timed out")
)

// CryptoError describes a failed invocation of the crypto primitive.
type CryptoError struct {
	Op       string // "generate", "encrypt" or "decrypt"
	Kind     error  // one of the ErrTool*/ErrMissingKey/ErrDecryptionFailed/ErrCryptoTimeout values
	ExitCode int    // meaningful for ErrToolFailure and ErrDecryptionFailed
	Output   []byte // combined stdout/stderr of the tool, diagnostic only
	Err      error  // underlying cause, if any
}

func (e *CryptoError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Kind == ErrToolFailure || e.Kind == ErrDecryptionFailed {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CryptoError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyUsername) ||
		errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrSelfSendRejected) ||
		errors.Is(err, ErrEmptyMessage)
}

// IsNotFound reports whether err refers to an unknown user or message.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrMessageNotFound)
}

// IsRetryable reports whether the caller may reasonably retry the failed step.
// The core itself never retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCryptoTimeout) || errors.Is(err, ErrStorageUnavailable)
}
