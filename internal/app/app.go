package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aymenrakics/Secure-Messaging-System/internal/config"
	"github.com/aymenrakics/Secure-Messaging-System/internal/database"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
	"github.com/aymenrakics/Secure-Messaging-System/internal/tool"
	"github.com/aymenrakics/Secure-Messaging-System/internal/vault"
)

// snapshotName is the vault item holding the database snapshot.
const snapshotName = "db"

// ErrBehindRemote is returned by NewSMApp when the vault holds a snapshot
// newer than the local database.
var ErrBehindRemote = errors.New("local database is behind remote snapshot")

// SMApp is the application layer between the CLI and MessagingService.
// It constructs all dependencies from config, tracks the running command as
// an Operation and manages the DB lifecycle on Close.
type SMApp struct {
	cfg     *config.Config
	db      smsg.Database
	vault   smsg.Vault // nil when no vault is configured
	keys    *smsg.KeyStore
	service *smsg.MessagingService
	logger  smsg.Logger
	op      *Operation
	logFile *os.File
}

// Deps holds pre-built dependencies. Zero fields are built from config.
type Deps struct {
	Tool     smsg.Tool
	Database smsg.Database
	Vault    smsg.Vault
	Clock    smsg.Clock
	IDs      smsg.IDGenerator
}

// NewSMApp creates a fully wired SMApp from the given config.
// operation names the CLI command being run (e.g. "Send", "Inbox").
// The caller must call Close when done.
func NewSMApp(ctx context.Context, cfg *config.Config, operation string, verbose bool) (*SMApp, error) {
	return NewSMAppWithDeps(ctx, cfg, operation, verbose, Deps{})
}

// NewSMAppWithDeps is NewSMApp with some dependencies supplied by the caller.
func NewSMAppWithDeps(ctx context.Context, cfg *config.Config, operation string, verbose bool, deps Deps) (*SMApp, error) {
	if deps.Clock == nil {
		deps.Clock = smsg.RealClock{}
	}
	if deps.IDs == nil {
		deps.IDs = smsg.UUIDGenerator{}
	}

	opID := deps.Clock.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID, verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a := &SMApp{
		cfg:     cfg,
		logger:  logger,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}
	if err := a.wire(ctx, deps); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *SMApp) wire(ctx context.Context, deps Deps) error {
	cfg := a.cfg

	a.keys = smsg.NewKeyStore(cfg.Crypto.KeysDir, cfg.Crypto.TempDir, deps.IDs.New(), deps.Clock)
	if err := a.keys.EnsureStorageReady(); err != nil {
		return err
	}

	t := deps.Tool
	if t == nil {
		var err error
		if t, err = tool.NewToolFromConfig(cfg.Crypto); err != nil {
			return fmt.Errorf("creating crypto tool: %w", err)
		}
	}

	a.db = deps.Database
	if a.db == nil {
		db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID, deps.Clock, a.logger)
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		a.db = db
		// An in-memory database starts empty on every run.
		if cfg.Database.Type == "memory" {
			if err := db.Migrate(); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
		}
	}
	if err := a.db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date (run 'smsg db migrate'): %w", err)
	}

	a.vault = deps.Vault
	if a.vault == nil && len(cfg.Vaults) > 0 {
		v, err := vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
		if err != nil {
			return fmt.Errorf("creating vault: %w", err)
		}
		a.vault = v
	}
	if err := a.checkRemoteVersion(ctx); err != nil {
		return err
	}

	timeout := cfg.Crypto.Timeout.Duration
	if timeout <= 0 {
		timeout = config.DefaultToolTimeout
	}
	gateway := smsg.NewCipherGateway(a.keys, t, timeout, a.logger)
	a.service = smsg.NewMessagingService(a.db, gateway, a.logger)
	return nil
}

// checkRemoteVersion refuses to run on a database older than the vault's
// latest snapshot, which would otherwise be overwritten on Close.
func (a *SMApp) checkRemoteVersion(ctx context.Context) error {
	if a.vault == nil {
		return nil
	}

	remote, err := a.vault.GetMetadataVersion(ctx, a.cfg.HostID, snapshotName)
	if err != nil {
		return fmt.Errorf("checking remote snapshot version: %w", err)
	}
	local, err := a.db.MaxOperationID(ctx)
	if err != nil {
		return fmt.Errorf("checking local database version: %w", err)
	}
	if remote > local {
		return fmt.Errorf("%w (local=%d, remote=%d): run 'smsg vault restore'", ErrBehindRemote, local, remote)
	}
	return nil
}

// persistOperation saves the operation to the database, giving it an ID.
// Only state-changing commands call it.
func (a *SMApp) persistOperation(ctx context.Context, parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(ctx, a.op.Name, parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Register creates a new user and key pair.
func (a *SMApp) Register(ctx context.Context, username string) (*smsg.User, error) {
	if err := a.persistOperation(ctx, "username="+username); err != nil {
		return nil, err
	}
	u, err := a.service.Register(ctx, username)
	return u, a.op.Record(err)
}

// Login resolves username into a session.
func (a *SMApp) Login(ctx context.Context, username string) (*smsg.Session, error) {
	return a.service.Login(ctx, username)
}

// ListUsers returns all registered users.
func (a *SMApp) ListUsers(ctx context.Context) ([]smsg.User, error) {
	return a.service.ListUsers(ctx)
}

// Send encrypts and stores a message. The plaintext is never recorded.
func (a *SMApp) Send(ctx context.Context, sess *smsg.Session, recipient, plaintext string) (smsg.MessageID, error) {
	if err := a.persistOperation(ctx, "to="+recipient); err != nil {
		return 0, err
	}
	id, err := a.service.Send(ctx, sess, recipient, plaintext)
	return id, a.op.Record(err)
}

// Inbox lists the session user's messages, most recent first.
func (a *SMApp) Inbox(ctx context.Context, sess *smsg.Session) ([]smsg.InboxEntry, error) {
	return a.service.Inbox(ctx, sess)
}

// Read decrypts a message by id and marks it read.
func (a *SMApp) Read(ctx context.Context, sess *smsg.Session, id smsg.MessageID) (string, error) {
	if err := a.persistOperation(ctx, fmt.Sprintf("id=%d", id)); err != nil {
		return "", err
	}
	text, err := a.service.Read(ctx, sess, id)
	return text, a.op.Record(err)
}

// ReadByIndex decrypts the index-th inbox message (1-based) and marks it read.
func (a *SMApp) ReadByIndex(ctx context.Context, sess *smsg.Session, index int) (string, error) {
	if err := a.persistOperation(ctx, fmt.Sprintf("index=%d", index)); err != nil {
		return "", err
	}
	text, err := a.service.ReadByIndex(ctx, sess, index)
	return text, a.op.Record(err)
}

// Stats summarizes the session user's inbox.
func (a *SMApp) Stats(ctx context.Context, sess *smsg.Session) (smsg.Stats, error) {
	return a.service.Stats(ctx, sess)
}

// History returns the most recent operations.
func (a *SMApp) History(ctx context.Context, limit int) ([]smsg.Operation, error) {
	return a.db.ListOperations(ctx, limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations it records the outcome, snapshots the database and
// uploads the snapshot to the vault with version = operation ID.
func (a *SMApp) Close(ctx context.Context) error {
	var errs []error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(ctx, a.op.ID, a.op.Status); err != nil {
			errs = append(errs, fmt.Errorf("finishing operation: %w", err))
		}
		if a.vault != nil {
			if err := a.uploadSnapshot(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}

	errs = append(errs, a.closeResources())
	return errors.Join(errs...)
}

func (a *SMApp) closeResources() error {
	var err error
	if a.db != nil {
		if cerr := a.db.Close(); cerr != nil {
			err = fmt.Errorf("closing database: %w", cerr)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

func (a *SMApp) uploadSnapshot(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "smsg-db-snapshot-*")
	if err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if err := a.db.BackupTo(ctx, path); err != nil {
		return fmt.Errorf("snapshotting database: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	start := time.Now()
	if err := a.vault.PutMetadata(ctx, a.cfg.HostID, snapshotName, f, info.Size(), a.op.ID); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}
	a.logger.Info("snapshot uploaded", "version", a.op.ID, "bytes", info.Size(), "duration", time.Since(start))
	return nil
}
