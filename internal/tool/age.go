package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// AgeTool implements the crypto primitive in-process with filippo.io/age
// X25519 keys. Ciphertext artifacts are ASCII-armored. It follows the same
// argument and exit-status contract as the external executable.
type AgeTool struct{}

var _ smsg.Tool = (*AgeTool)(nil)

// NewAgeTool creates a new AgeTool.
func NewAgeTool() *AgeTool {
	return &AgeTool{}
}

func (t *AgeTool) Run(ctx context.Context, args ...string) (smsg.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return smsg.ToolResult{}, err
	}
	if len(args) == 0 {
		return failure("missing mode"), nil
	}

	var err error
	var msg string
	switch args[0] {
	case smsg.ModeGenerate:
		if len(args) != 3 {
			return failure("usage: generer <public> <private>"), nil
		}
		err = ageGenerate(args[1], args[2])
		msg = "key pair generated"
	case smsg.ModeEncrypt:
		if len(args) != 4 {
			return failure("usage: chiffrer <public> <message> <output>"), nil
		}
		err = ageEncrypt(args[1], args[2], args[3])
		msg = "message encrypted"
	case smsg.ModeDecrypt:
		if len(args) != 4 {
			return failure("usage: dechiffrer <private> <input> <output>"), nil
		}
		err = ageDecrypt(args[1], args[2], args[3])
		msg = "message decrypted"
	default:
		return failure(fmt.Sprintf("unknown mode %q", args[0])), nil
	}

	if err != nil {
		return failure(err.Error()), nil
	}
	return smsg.ToolResult{Output: []byte(msg + "\n")}, nil
}

func ageGenerate(pubPath, privPath string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, p := range []string{pubPath, privPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(pubPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	if err := os.WriteFile(privPath, []byte(identity.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	return nil
}

func ageEncrypt(pubPath, plaintext, outPath string) error {
	pubData, err := os.ReadFile(pubPath)
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}
	recipients, err := age.ParseRecipients(bytes.NewReader(pubData))
	if err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	aw := armor.NewWriter(f)
	w, err := age.Encrypt(aw, recipients...)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return fmt.Errorf("encrypting message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("finalizing armor: %w", err)
	}
	return f.Close()
}

func ageDecrypt(privPath, inPath, outPath string) error {
	privData, err := os.ReadFile(privPath)
	if err != nil {
		return fmt.Errorf("reading private key: %w", err)
	}
	identities, err := age.ParseIdentities(bytes.NewReader(privData))
	if err != nil {
		return fmt.Errorf("parsing private key: %w", err)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	r, err := age.Decrypt(armor.NewReader(in), identities...)
	if err != nil {
		return fmt.Errorf("decrypting message: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading plaintext: %w", err)
	}

	return os.WriteFile(outPath, plaintext, 0600)
}

func failure(msg string) smsg.ToolResult {
	return smsg.ToolResult{ExitCode: 1, Output: []byte("error: " + strings.TrimSpace(msg) + "\n")}
}
