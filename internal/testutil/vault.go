package testutil

import (
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
	"github.com/aymenrakics/Secure-Messaging-System/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() smsg.Vault {
	return vault.NewMemoryVault("test-vault")
}
