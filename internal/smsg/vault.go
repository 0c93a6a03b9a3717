package smsg

import (
	"context"
	"io"
)

// Vault stores versioned database snapshots away from the local machine.
type Vault interface {
	// PutMetadata stores a named item for a host. size is the number of bytes
	// that will be read from r. version is stored alongside for consistency
	// checks. The only name in use is "db".
	PutMetadata(ctx context.Context, hostID, name string, r io.Reader, size int64, version int64) error

	// GetMetadata writes the named item for a host to w.
	GetMetadata(ctx context.Context, hostID, name string, w io.Writer) error

	// GetMetadataVersion returns the stored version of the named item, or 0
	// if nothing has been stored yet.
	GetMetadataVersion(ctx context.Context, hostID, name string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and usable.
	ValidateSetup(ctx context.Context) error
}
