package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemVault(t *testing.T) {
	t.Run("creates directory structure", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "vault")

		v, err := NewFileSystemVault("test", root)
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "metadata")); err != nil {
			t.Errorf("metadata directory not created: %v", err)
		}
		if v.name != "test" {
			t.Errorf("name = %q, want %q", v.name, "test")
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		if _, err := NewFileSystemVault("test", t.TempDir()); err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
	})
}

func TestFileSystemVault_PutMetadata(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		size    int64
		wantErr bool
	}{
		{name: "store snapshot", data: "snapshot", size: 8},
		{name: "empty snapshot", data: "", size: 0},
		{name: "size mismatch", data: "short", size: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			v, err := NewFileSystemVault("test", t.TempDir())
			if err != nil {
				t.Fatalf("NewFileSystemVault() error = %v", err)
			}

			err = v.PutMetadata(ctx, "host-1", "db", strings.NewReader(tt.data), tt.size, 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PutMetadata() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if _, err := os.Stat(filepath.Join(v.metadataDir, "host-1", "db")); !errors.Is(err, os.ErrNotExist) {
					t.Errorf("failed write left a snapshot behind: %v", err)
				}
				return
			}

			var buf bytes.Buffer
			if err := v.GetMetadata(ctx, "host-1", "db", &buf); err != nil {
				t.Fatalf("GetMetadata() error = %v", err)
			}
			if buf.String() != tt.data {
				t.Errorf("GetMetadata() = %q, want %q", buf.String(), tt.data)
			}
		})
	}
}

func TestFileSystemVault_PutMetadata_Overwrites(t *testing.T) {
	ctx := context.Background()
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	v.PutMetadata(ctx, "h", "db", strings.NewReader("old"), 3, 1)
	if err := v.PutMetadata(ctx, "h", "db", strings.NewReader("newer"), 5, 2); err != nil {
		t.Fatalf("PutMetadata() error = %v", err)
	}

	var buf bytes.Buffer
	v.GetMetadata(ctx, "h", "db", &buf)
	if buf.String() != "newer" {
		t.Errorf("GetMetadata() = %q, want %q", buf.String(), "newer")
	}
	version, _ := v.GetMetadataVersion(ctx, "h", "db")
	if version != 2 {
		t.Errorf("GetMetadataVersion() = %d, want 2", version)
	}
}

func TestFileSystemVault_Missing(t *testing.T) {
	ctx := context.Background()
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	version, err := v.GetMetadataVersion(ctx, "nobody", "db")
	if err != nil {
		t.Fatalf("GetMetadataVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("GetMetadataVersion() = %d, want 0", version)
	}

	err = v.GetMetadata(ctx, "nobody", "db", &bytes.Buffer{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMetadata() error = %v, want ErrNotFound", err)
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	t.Run("valid setup", func(t *testing.T) {
		v, _ := NewFileSystemVault("test", t.TempDir())
		if err := v.ValidateSetup(context.Background()); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("missing root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "vault")
		v, _ := NewFileSystemVault("test", root)
		os.RemoveAll(root)

		if err := v.ValidateSetup(context.Background()); err == nil {
			t.Error("ValidateSetup() expected error for missing root")
		}
	})
}
