package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// FileSystemVault stores snapshots under a local directory, typically a
// mounted backup drive:
//
//	<root>/
//	  metadata/
//	    <hostID>/
//	      <name>          (snapshot bytes)
//	      <name>.version  (decimal version)
type FileSystemVault struct {
	name        string
	root        string
	metadataDir string
}

var _ smsg.Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	metadataDir := filepath.Join(root, "metadata")
	if err := os.MkdirAll(metadataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		metadataDir: metadataDir,
	}, nil
}

// PutMetadata writes the item then its version. The data file is renamed into
// place, so a reader never sees a partial snapshot.
func (v *FileSystemVault) PutMetadata(ctx context.Context, hostID, name string, r io.Reader, size int64, version int64) error {
	hostDir := filepath.Join(v.metadataDir, hostID)
	if err := os.MkdirAll(hostDir, 0700); err != nil {
		return fmt.Errorf("failed to create host directory: %w", err)
	}

	if err := writeAtomic(filepath.Join(hostDir, name), r, size); err != nil {
		return err
	}

	versionData := strings.NewReader(strconv.FormatInt(version, 10))
	return writeAtomic(filepath.Join(hostDir, name+".version"), versionData, versionData.Size())
}

// GetMetadataVersion returns 0 if no version file exists.
func (v *FileSystemVault) GetMetadataVersion(ctx context.Context, hostID, name string) (int64, error) {
	data, err := os.ReadFile(filepath.Join(v.metadataDir, hostID, name+".version"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

func (v *FileSystemVault) GetMetadata(ctx context.Context, hostID, name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(v.metadataDir, hostID, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %q for host %s", ErrNotFound, name, hostID)
		}
		return fmt.Errorf("failed to open metadata: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the vault directories exist.
func (v *FileSystemVault) ValidateSetup(ctx context.Context) error {
	for _, dir := range []string{v.root, v.metadataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeAtomic copies r to destPath through a temp file in the same directory.
func writeAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
