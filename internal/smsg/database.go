package smsg

import (
	"context"
	"time"
)

// Operation records one state-changing command run against the database.
// Its ID doubles as the version of the snapshot uploaded when it finishes.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // "running", "success" or "error"
}

// Database is the full storage surface used by the application: the
// messaging Repository plus the operation log and snapshot support.
type Database interface {
	Repository

	// CreateOperation starts a new operation record and assigns its ID.
	CreateOperation(ctx context.Context, operation, parameters string) (*Operation, error)

	// FinishOperation stamps the finish time and final status.
	FinishOperation(ctx context.Context, id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(ctx context.Context, limit int) ([]Operation, error)

	// MaxOperationID returns the highest operation ID, or 0 if none exist.
	MaxOperationID(ctx context.Context) (int64, error)

	// CheckMigrations verifies the schema is at the version this binary expects.
	CheckMigrations() error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(ctx context.Context, destPath string) error

	// Close closes the database connection.
	Close() error
}
