package tool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// testHeader is prepended to plaintext by TestTool so ciphertext differs from
// plaintext while staying deterministic and reversible.
var testHeader = []byte("SMSGENC\x00")

// TestTool is a deterministic stand-in for the crypto primitive. Key files
// hold the username-free marker "test-public"/"test-private"; ciphertext is
// testHeader followed by the plaintext.
type TestTool struct{}

var _ smsg.Tool = (*TestTool)(nil)

// NewTestTool creates a new TestTool.
func NewTestTool() *TestTool {
	return &TestTool{}
}

func (t *TestTool) Run(ctx context.Context, args ...string) (smsg.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return smsg.ToolResult{}, err
	}
	if len(args) != 3 && len(args) != 4 {
		return failure("wrong number of arguments"), nil
	}

	switch {
	case args[0] == smsg.ModeGenerate && len(args) == 3:
		for path, content := range map[string]string{args[1]: "test-public\n", args[2]: "test-private\n"} {
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return failure(err.Error()), nil
			}
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				return failure(err.Error()), nil
			}
		}
		return smsg.ToolResult{Output: []byte("key pair generated\n")}, nil

	case args[0] == smsg.ModeEncrypt && len(args) == 4:
		if _, err := os.Stat(args[1]); err != nil {
			return failure(fmt.Sprintf("public key: %v", err)), nil
		}
		data := append(append([]byte{}, testHeader...), args[2]...)
		if err := os.WriteFile(args[3], data, 0600); err != nil {
			return failure(err.Error()), nil
		}
		return smsg.ToolResult{Output: []byte("message encrypted\n")}, nil

	case args[0] == smsg.ModeDecrypt && len(args) == 4:
		if _, err := os.Stat(args[1]); err != nil {
			return failure(fmt.Sprintf("private key: %v", err)), nil
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return failure(err.Error()), nil
		}
		if !bytes.HasPrefix(data, testHeader) {
			return failure("invalid test encryption header"), nil
		}
		if err := os.WriteFile(args[3], data[len(testHeader):], 0600); err != nil {
			return failure(err.Error()), nil
		}
		return smsg.ToolResult{Output: []byte("message decrypted\n")}, nil
	}

	return failure(fmt.Sprintf("unknown mode %q", args[0])), nil
}
