package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymenrakics/Secure-Messaging-System/internal/config"
	"github.com/aymenrakics/Secure-Messaging-System/internal/database"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
	"github.com/aymenrakics/Secure-Messaging-System/internal/vault"
)

// Setup creates the data directories named in cfg and brings the database
// schema up to date. It is safe to run repeatedly.
func Setup(cfg *config.Config) error {
	for _, dir := range []string{cfg.LogDir, cfg.Crypto.KeysDir, cfg.Crypto.TempDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return MigrateDatabase(cfg)
}

// MigrateDatabase applies pending schema migrations to the configured database.
func MigrateDatabase(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID, nil, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// ErrLocalDatabaseExists is returned by RestoreDatabase when a local database
// is present and force is not set.
var ErrLocalDatabaseExists = errors.New("local database already exists")

// RestoreDatabase installs the latest snapshot from the first configured vault
// as the local database. Unless force is set it only runs when no local
// database exists. The snapshot is validated before it is moved into place.
// It returns the restored version.
func RestoreDatabase(ctx context.Context, cfg *config.Config, force bool) (int64, error) {
	if len(cfg.Vaults) == 0 {
		return 0, errors.New("no vaults configured")
	}
	if cfg.Database.Type != "sqlite" && cfg.Database.Type != "" {
		return 0, fmt.Errorf("restore requires a sqlite database, got %q", cfg.Database.Type)
	}

	if !force {
		if _, err := os.Stat(databasePath(cfg)); err == nil {
			return 0, fmt.Errorf("%w: %s", ErrLocalDatabaseExists, databasePath(cfg))
		}
	}

	v, err := vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}
	return restoreFrom(ctx, v, cfg)
}

func databasePath(cfg *config.Config) string {
	return filepath.Join(cfg.Database.DataDir, cfg.HostID+".db")
}

func restoreFrom(ctx context.Context, v smsg.Vault, cfg *config.Config) (int64, error) {
	version, err := v.GetMetadataVersion(ctx, cfg.HostID, snapshotName)
	if err != nil {
		return 0, fmt.Errorf("reading snapshot version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("no snapshot stored for host %s", cfg.HostID)
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0700); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}
	tmp, err := os.CreateTemp(cfg.Database.DataDir, ".restore-*.db")
	if err != nil {
		return 0, fmt.Errorf("creating restore file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := v.GetMetadata(ctx, cfg.HostID, snapshotName, tmp); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("writing snapshot: %w", err)
	}

	check, err := database.NewSQLiteDatabase(tmpPath, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	err = check.CheckMigrations()
	check.Close()
	if err != nil {
		return 0, fmt.Errorf("snapshot is not a usable database: %w", err)
	}

	if err := os.Rename(tmpPath, databasePath(cfg)); err != nil {
		return 0, fmt.Errorf("replacing database: %w", err)
	}
	return version, nil
}

// CheckVaults verifies every configured vault is reachable. It returns the
// first failure, tagged with the vault name.
func CheckVaults(ctx context.Context, cfg *config.Config) error {
	if len(cfg.Vaults) == 0 {
		return errors.New("no vaults configured")
	}
	for _, vc := range cfg.Vaults {
		v, err := vault.NewVaultFromConfig(ctx, vc)
		if err != nil {
			return fmt.Errorf("vault %s: %w", vc.Name, err)
		}
		if err := v.ValidateSetup(ctx); err != nil {
			return fmt.Errorf("vault %s: %w", vc.Name, err)
		}
	}
	return nil
}
