package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymenrakics/Secure-Messaging-System/internal/config"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// NewDatabaseFromConfig creates a SQLiteDatabase based on the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, hostID string, clock smsg.Clock, logger smsg.Logger) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("%w: creating data directory: %v", smsg.ErrStorageUnavailable, err)
		}
		dbPath := filepath.Join(cfg.DataDir, hostID+".db")
		return NewSQLiteDatabase(dbPath, clock, logger)
	case "memory":
		return NewSQLiteDatabase(":memory:", clock, logger)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
