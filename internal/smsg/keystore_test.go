package smsg_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
	"github.com/aymenrakics/Secure-Messaging-System/internal/testutil"
)

func TestKeyStore_Paths(t *testing.T) {
	ks := smsg.NewKeyStore("/data/keys", "/data/temp", "inst", testutil.FixedClock())

	assert.Equal(t, "/data/keys/alice_public.key", ks.PathForPublicKey("alice"))
	assert.Equal(t, "/data/keys/alice_private.key", ks.PathForPrivateKey("alice"))
	assert.Equal(t, "/data/temp", ks.TempDir())
}

func TestKeyStore_KeysExist(t *testing.T) {
	ks := testutil.NewTestKeyStore(t, testutil.FixedClock())

	assert.False(t, ks.KeysExist("alice"))

	require.NoError(t, os.WriteFile(ks.PathForPublicKey("alice"), []byte("pub"), 0600))
	assert.False(t, ks.KeysExist("alice"), "private key still missing")

	require.NoError(t, os.WriteFile(ks.PathForPrivateKey("alice"), []byte("priv"), 0600))
	assert.True(t, ks.KeysExist("alice"))
}

func TestKeyStore_EnsureStorageReady(t *testing.T) {
	base := t.TempDir()
	ks := smsg.NewKeyStore(filepath.Join(base, "a", "keys"), filepath.Join(base, "b", "temp"), "inst", testutil.FixedClock())

	require.NoError(t, ks.EnsureStorageReady())
	for _, dir := range []string{"a/keys", "b/temp"} {
		info, err := os.Stat(filepath.Join(base, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestKeyStore_EnsureStorageReady_Unwritable(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	ks := smsg.NewKeyStore(filepath.Join(blocker, "keys"), filepath.Join(base, "temp"), "inst", testutil.FixedClock())
	assert.ErrorIs(t, ks.EnsureStorageReady(), smsg.ErrStorageUnavailable)
}

func TestKeyStore_NewTempPathUnique(t *testing.T) {
	// A frozen clock forces every name into the same tick.
	ks := smsg.NewKeyStore("/k", "/t", "inst", testutil.FixedClock())

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		p := ks.NewTempPath(".enc")
		require.False(t, seen[p], "duplicate temp path %s", p)
		seen[p] = true
		assert.Equal(t, "/t", filepath.Dir(p))
		assert.Equal(t, ".enc", filepath.Ext(p))
	}
}
