package smsg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// CipherGateway is the only component allowed to invoke the crypto primitive.
// Every operation waits for the primitive to terminate (bounded by timeout)
// and removes the temporary artifacts it created on every exit path.
type CipherGateway struct {
	keys    *KeyStore
	tool    Tool
	timeout time.Duration
	logger  Logger
}

// NewCipherGateway creates a gateway. A zero timeout disables the bound.
func NewCipherGateway(keys *KeyStore, tool Tool, timeout time.Duration, logger Logger) *CipherGateway {
	return &CipherGateway{
		keys:    keys,
		tool:    tool,
		timeout: timeout,
		logger:  logger,
	}
}

// GenerateKeyPair creates the key pair for username and installs it at the
// KeyStore paths, replacing any existing pair.
func (g *CipherGateway) GenerateKeyPair(ctx context.Context, username string) (string, string, error) {
	pending, err := g.StageKeyPair(ctx, username)
	if err != nil {
		return "", "", err
	}
	defer pending.Discard()

	if err := pending.Install(); err != nil {
		return "", "", err
	}
	return pending.PublicKeyRef(), pending.PrivateKeyRef(), nil
}

// StageKeyPair generates a key pair for username under unique staging names.
// Nothing is visible at the user's key paths until Install; concurrent
// registrations of one name each stage their own pair.
func (g *CipherGateway) StageKeyPair(ctx context.Context, username string) (*PendingKeyPair, error) {
	pub, priv := g.keys.StagingPaths(username)
	p := &PendingKeyPair{
		g:          g,
		username:   username,
		stagedPub:  pub,
		stagedPriv: priv,
	}

	res, err := g.invoke(ctx, "generate", ModeGenerate, pub, priv)
	if err != nil {
		p.Discard()
		return nil, err
	}
	if res.ExitCode != 0 {
		p.Discard()
		return nil, &CryptoError{Op: "generate", Kind: ErrToolFailure, ExitCode: res.ExitCode, Output: res.Output}
	}
	if !readable(pub) || !readable(priv) {
		p.Discard()
		return nil, &CryptoError{
			Op:     "generate",
			Kind:   ErrToolFailure,
			Output: res.Output,
			Err:    errors.New("key artifacts not written"),
		}
	}

	g.logger.Debug("key pair staged", "username", username)
	return p, nil
}

// PendingKeyPair is a generated key pair that is not yet installed.
type PendingKeyPair struct {
	g          *CipherGateway
	username   string
	stagedPub  string
	stagedPriv string
	installed  bool
}

// PublicKeyRef is where the public key lives once installed.
func (p *PendingKeyPair) PublicKeyRef() string {
	return p.g.keys.PathForPublicKey(p.username)
}

// PrivateKeyRef is where the private key lives once installed.
func (p *PendingKeyPair) PrivateKeyRef() string {
	return p.g.keys.PathForPrivateKey(p.username)
}

// Install moves the staged pair to the user's key paths. The private key goes
// first, so KeysExist only turns true once both halves are from this pair.
func (p *PendingKeyPair) Install() error {
	if err := os.Rename(p.stagedPriv, p.PrivateKeyRef()); err != nil {
		return fmt.Errorf("%w: installing private key: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(p.stagedPub, p.PublicKeyRef()); err != nil {
		return fmt.Errorf("%w: installing public key: %v", ErrStorageUnavailable, err)
	}
	p.installed = true
	p.g.logger.Info("key pair generated", "username", p.username)
	return nil
}

// Discard removes the staged files. It is a no-op after Install.
func (p *PendingKeyPair) Discard() {
	if p.installed {
		return
	}
	p.g.removeTemp(p.stagedPub)
	p.g.removeTemp(p.stagedPriv)
}

// Encrypt encrypts plaintext under the recipient's public key and returns the
// ciphertext exactly as the primitive wrote it.
func (g *CipherGateway) Encrypt(ctx context.Context, recipient, plaintext string) ([]byte, error) {
	if !g.keys.KeysExist(recipient) {
		return nil, &CryptoError{Op: "encrypt", Kind: ErrMissingKey, Err: fmt.Errorf("no key pair for %q", recipient)}
	}

	out := g.keys.NewTempPath(".enc")
	defer g.removeTemp(out)

	res, err := g.invoke(ctx, "encrypt", ModeEncrypt, g.keys.PathForPublicKey(recipient), plaintext, out)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &CryptoError{Op: "encrypt", Kind: ErrToolFailure, ExitCode: res.ExitCode, Output: res.Output}
	}

	ciphertext, err := os.ReadFile(out)
	if err != nil {
		return nil, &CryptoError{Op: "encrypt", Kind: ErrToolFailure, Output: res.Output, Err: fmt.Errorf("reading ciphertext artifact: %w", err)}
	}
	return ciphertext, nil
}

// Decrypt recovers the plaintext of ciphertext with the owner's private key.
// The exit status is the only success signal: an empty plaintext is valid.
func (g *CipherGateway) Decrypt(ctx context.Context, owner string, ciphertext []byte) (string, error) {
	if !g.keys.KeysExist(owner) {
		return "", &CryptoError{Op: "decrypt", Kind: ErrMissingKey, Err: fmt.Errorf("no key pair for %q", owner)}
	}

	in := g.keys.NewTempPath(".enc")
	out := g.keys.NewTempPath(".dec")
	defer g.removeTemp(in)
	defer g.removeTemp(out)

	if err := writeExclusive(in, ciphertext); err != nil {
		return "", &CryptoError{Op: "decrypt", Kind: ErrDecryptionFailed, Err: fmt.Errorf("writing ciphertext artifact: %w", err)}
	}

	res, err := g.invoke(ctx, "decrypt", ModeDecrypt, g.keys.PathForPrivateKey(owner), in, out)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &CryptoError{Op: "decrypt", Kind: ErrDecryptionFailed, ExitCode: res.ExitCode, Output: res.Output}
	}

	plaintext, err := os.ReadFile(out)
	if err != nil {
		return "", &CryptoError{Op: "decrypt", Kind: ErrDecryptionFailed, Output: res.Output, Err: fmt.Errorf("reading plaintext artifact: %w", err)}
	}
	return string(plaintext), nil
}

// invoke runs the tool under the gateway timeout and maps launch failures and
// expiry to CryptoErrors. Arguments are not logged: they may hold plaintext.
func (g *CipherGateway) invoke(ctx context.Context, op string, args ...string) (ToolResult, error) {
	runCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := g.tool.Run(runCtx, args...)
	g.logger.Debug("crypto tool finished",
		"op", op,
		"exit_code", res.ExitCode,
		"duration", time.Since(start),
		"output", string(res.Output),
	)

	if err == nil {
		return res, nil
	}
	switch {
	case ctx.Err() != nil:
		// The caller gave up; report that rather than a tool failure.
		return res, fmt.Errorf("%s: %w", op, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		g.logger.Warn("crypto tool timed out", "op", op, "timeout", g.timeout)
		return res, &CryptoError{Op: op, Kind: ErrCryptoTimeout, Output: res.Output, Err: err}
	default:
		return res, &CryptoError{Op: op, Kind: ErrToolUnavailable, Output: res.Output, Err: err}
	}
}

func (g *CipherGateway) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		g.logger.Warn("failed to remove temporary artifact", "path", path, "error", err)
	}
}

// writeExclusive creates path, failing if it already exists, and writes data.
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
