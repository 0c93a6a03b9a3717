package smsg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

func TestCipherGateway_GenerateKeyPair(t *testing.T) {
	ctx := context.Background()

	t.Run("writes both keys", func(t *testing.T) {
		env := newTestEnv(t)

		pub, priv, err := env.gw.GenerateKeyPair(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, env.keys.PathForPublicKey("alice"), pub)
		assert.Equal(t, env.keys.PathForPrivateKey("alice"), priv)
		assert.True(t, env.keys.KeysExist("alice"))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		env := newTestEnv(t)
		env.tool.FailMode(smsg.ModeGenerate, 4)

		_, _, err := env.gw.GenerateKeyPair(ctx, "alice")
		require.ErrorIs(t, err, smsg.ErrToolFailure)
		var ce *smsg.CryptoError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 4, ce.ExitCode)
		assert.Equal(t, "generate", ce.Op)
	})

	t.Run("exit zero without artifacts", func(t *testing.T) {
		env := newTestEnv(t)
		env.tool.SkipMode(smsg.ModeGenerate)

		_, _, err := env.gw.GenerateKeyPair(ctx, "alice")
		assert.ErrorIs(t, err, smsg.ErrToolFailure)
	})

	t.Run("tool unavailable", func(t *testing.T) {
		env := newTestEnv(t)
		env.tool.SetUnavailable(true)

		_, _, err := env.gw.GenerateKeyPair(ctx, "alice")
		assert.ErrorIs(t, err, smsg.ErrToolUnavailable)
	})
}

func TestCipherGateway_EncryptDecrypt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, _, err := env.gw.GenerateKeyPair(ctx, "bob")
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple", plaintext: "hello bob"},
		{name: "shell metacharacters", plaintext: `$(rm -rf /); echo "hi" | cat > x`},
		{name: "unicode", plaintext: "ça va? 👋"},
		{name: "multi-line", plaintext: "line one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := env.gw.Encrypt(ctx, "bob", tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, string(ciphertext))

			plaintext, err := env.gw.Decrypt(ctx, "bob", ciphertext)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}

	env.assertTempEmpty(t)
}

func TestCipherGateway_MissingKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.gw.Encrypt(ctx, "ghost", "hi")
	assert.ErrorIs(t, err, smsg.ErrMissingKey)

	_, err = env.gw.Decrypt(ctx, "ghost", []byte("x"))
	assert.ErrorIs(t, err, smsg.ErrMissingKey)

	assert.Empty(t, env.tool.Calls(), "tool must not run without keys")
}

func TestCipherGateway_FailuresCleanUp(t *testing.T) {
	ctx := context.Background()

	t.Run("encrypt failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "bob")
		env.tool.FailMode(smsg.ModeEncrypt, 1)

		_, err := env.gw.Encrypt(ctx, "bob", "hi")
		assert.ErrorIs(t, err, smsg.ErrToolFailure)
		env.assertTempEmpty(t)
	})

	t.Run("decrypt failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "bob")

		_, err := env.gw.Decrypt(ctx, "bob", []byte("not produced by the tool"))
		assert.ErrorIs(t, err, smsg.ErrDecryptionFailed)
		env.assertTempEmpty(t)
	})

	t.Run("artifacts exist while the tool runs", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "bob")
		ciphertext, err := env.gw.Encrypt(ctx, "bob", "hi")
		require.NoError(t, err)

		var inputSeen bool
		env.tool.OnRun = func(args []string) {
			if args[0] == smsg.ModeDecrypt {
				_, statErr := os.Stat(args[2])
				inputSeen = statErr == nil
			}
		}

		_, err = env.gw.Decrypt(ctx, "bob", ciphertext)
		require.NoError(t, err)
		assert.True(t, inputSeen, "ciphertext artifact should exist during the call")
		env.assertTempEmpty(t)
	})
}

func TestCipherGateway_PartialOutputCleanUp(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mode    string
		block   bool
		wantErr error
	}{
		{name: "encrypt writes then fails", mode: smsg.ModeEncrypt, wantErr: smsg.ErrToolFailure},
		{name: "encrypt writes then hangs", mode: smsg.ModeEncrypt, block: true, wantErr: smsg.ErrCryptoTimeout},
		{name: "decrypt writes then fails", mode: smsg.ModeDecrypt, wantErr: smsg.ErrDecryptionFailed},
		{name: "decrypt writes then hangs", mode: smsg.ModeDecrypt, block: true, wantErr: smsg.ErrCryptoTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvWithTimeout(t, 50*time.Millisecond)
			env.register(t, "bob")
			ciphertext, err := env.gw.Encrypt(ctx, "bob", "hi")
			require.NoError(t, err)

			var written []string
			env.tool.OnRun = func(args []string) {
				if args[0] == tt.mode {
					written = append(written, args[len(args)-1])
				}
			}
			env.tool.WriteOutputsFirst(tt.mode)
			if tt.block {
				env.tool.BlockMode(tt.mode)
			} else {
				env.tool.FailMode(tt.mode, 2)
			}

			if tt.mode == smsg.ModeEncrypt {
				_, err = env.gw.Encrypt(ctx, "bob", "hi")
			} else {
				_, err = env.gw.Decrypt(ctx, "bob", ciphertext)
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.Len(t, written, 1)
			assert.NoFileExists(t, written[0])
			env.assertTempEmpty(t)
		})
	}
}

func TestCipherGateway_PartialKeyPairIsDiscarded(t *testing.T) {
	for _, block := range []bool{false, true} {
		env := newTestEnvWithTimeout(t, 50*time.Millisecond)
		env.tool.WriteOutputsFirst(smsg.ModeGenerate)
		if block {
			env.tool.BlockMode(smsg.ModeGenerate)
		} else {
			env.tool.FailMode(smsg.ModeGenerate, 2)
		}

		_, _, err := env.gw.GenerateKeyPair(context.Background(), "alice")
		require.Error(t, err, "block=%v", block)
		assert.False(t, env.keys.KeysExist("alice"))

		entries, err := os.ReadDir(filepath.Dir(env.keys.PathForPublicKey("alice")))
		require.NoError(t, err)
		assert.Empty(t, entries, "block=%v", block)
	}
}

func TestCipherGateway_Timeout(t *testing.T) {
	env := newTestEnvWithTimeout(t, 50*time.Millisecond)
	env.register(t, "bob")
	env.tool.BlockMode(smsg.ModeEncrypt)

	start := time.Now()
	_, err := env.gw.Encrypt(context.Background(), "bob", "hi")
	require.ErrorIs(t, err, smsg.ErrCryptoTimeout)
	assert.True(t, smsg.IsRetryable(err))
	assert.Less(t, time.Since(start), 5*time.Second)
	env.assertTempEmpty(t)
}

func TestCipherGateway_CallerCancels(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob")
	env.tool.BlockMode(smsg.ModeEncrypt)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := env.gw.Encrypt(ctx, "bob", "hi")
	require.ErrorIs(t, err, context.Canceled)
	var ce *smsg.CryptoError
	assert.False(t, errors.As(err, &ce), "cancellation is not a crypto failure")
}
