package testutil

import (
	"path/filepath"
	"testing"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// NewTestKeyStore creates a KeyStore under a per-test temporary directory with
// its directories already created.
func NewTestKeyStore(t *testing.T, clock smsg.Clock) *smsg.KeyStore {
	t.Helper()

	base := t.TempDir()
	ks := smsg.NewKeyStore(filepath.Join(base, "keys"), filepath.Join(base, "temp"), "test", clock)
	if err := ks.EnsureStorageReady(); err != nil {
		t.Fatalf("failed to prepare key store: %v", err)
	}
	return ks
}
