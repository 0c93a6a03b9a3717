package smsg

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// KeyStore derives and checks the on-disk location of per-user key pairs and
// hands out unique names for short-lived crypto artifacts.
//
// Layout:
//
//	<keys_dir>/
//	  <username>_public.key
//	  <username>_private.key
//	  .<username>_{public,private}.key.<instance>.<counter>.pending
//	<temp_dir>/
//	  msg_<unixnano>_<instance>_<counter>.<ext>
type KeyStore struct {
	keysDir  string
	tempDir  string
	instance string
	clock    Clock
	counter  atomic.Uint64
}

// NewKeyStore creates a KeyStore. instance must be unique per process (a UUID
// in production) so that concurrent processes sharing temp_dir never collide.
func NewKeyStore(keysDir, tempDir, instance string, clock Clock) *KeyStore {
	return &KeyStore{
		keysDir:  keysDir,
		tempDir:  tempDir,
		instance: instance,
		clock:    clock,
	}
}

// PathForPublicKey returns where the user's public key lives. No I/O.
func (k *KeyStore) PathForPublicKey(username string) string {
	return filepath.Join(k.keysDir, username+"_public.key")
}

// PathForPrivateKey returns where the user's private key lives. No I/O.
func (k *KeyStore) PathForPrivateKey(username string) string {
	return filepath.Join(k.keysDir, username+"_private.key")
}

// StagingPaths returns fresh paths in the keys directory where a key pair for
// username can be generated before it is installed. Same directory as the
// final paths, so installing is a rename.
func (k *KeyStore) StagingPaths(username string) (string, string) {
	suffix := fmt.Sprintf(".%s.%d.pending", k.instance, k.counter.Add(1))
	return filepath.Join(k.keysDir, "."+username+"_public.key"+suffix),
		filepath.Join(k.keysDir, "."+username+"_private.key"+suffix)
}

// KeysExist reports whether both key artifacts exist and are readable.
func (k *KeyStore) KeysExist(username string) bool {
	return readable(k.PathForPublicKey(username)) && readable(k.PathForPrivateKey(username))
}

// EnsureStorageReady creates the keys and temp directories if needed.
func (k *KeyStore) EnsureStorageReady() error {
	for _, dir := range []string{k.keysDir, k.tempDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrStorageUnavailable, dir, err)
		}
	}
	return nil
}

// TempDir returns the directory holding short-lived artifacts.
func (k *KeyStore) TempDir() string {
	return k.tempDir
}

// NewTempPath returns a fresh artifact path with the given extension
// (including the dot). Names combine a nanosecond timestamp, the process
// instance id and a per-process counter, so two calls never share a name even
// within the same clock tick or across processes.
func (k *KeyStore) NewTempPath(ext string) string {
	n := k.counter.Add(1)
	name := fmt.Sprintf("msg_%d_%s_%d%s", k.clock.Now().UnixNano(), k.instance, n, ext)
	return filepath.Join(k.tempDir, name)
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
