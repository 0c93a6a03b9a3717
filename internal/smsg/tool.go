package smsg

import "context"

// Modes understood by the crypto primitive. They are passed as the first
// positional argument.
const (
	ModeGenerate = "generer"
	ModeEncrypt  = "chiffrer"
	ModeDecrypt  = "dechiffrer"
)

// ToolResult is the outcome of a primitive invocation that ran to completion.
type ToolResult struct {
	ExitCode int
	// Output is the combined stdout/stderr stream. It is diagnostic only and
	// must never be parsed as data.
	Output []byte
}

// Tool invokes the external crypto primitive with positional arguments:
//
//	generer    <publicKeyPath> <privateKeyPath>
//	chiffrer   <publicKeyPath> <plaintext> <outputCiphertextPath>
//	dechiffrer <privateKeyPath> <inputCiphertextPath> <outputPlaintextPath>
//
// A non-zero exit status is reported through ToolResult, not as an error.
// Run returns an error only when the primitive could not be launched (wrapping
// ErrToolUnavailable) or when ctx ended before it terminated; in the latter
// case the implementation must have terminated the primitive before returning.
type Tool interface {
	Run(ctx context.Context, args ...string) (ToolResult, error)
}
