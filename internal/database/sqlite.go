package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/aymenrakics/Secure-Messaging-System/internal/database/migrations"
	"github.com/aymenrakics/Secure-Messaging-System/internal/database/sqlc"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// SQLiteDatabase implements smsg.Database using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	clock   smsg.Clock
	logger  smsg.Logger
}

var _ smsg.Database = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
// A nil clock or logger falls back to the real clock and a no-op logger.
func NewSQLiteDatabase(path string, clock smsg.Clock, logger smsg.Logger) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = smsg.RealClock{}
	}
	if logger == nil {
		logger = smsg.NewNopLogger()
	}

	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
		clock:   clock,
		logger:  logger,
	}, nil
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
//
// Every connection gets foreign keys, a 5s busy timeout and immediate
// transactions, so two processes sharing a file serialize their writes instead
// of failing on lock upgrade. The pool is limited to one connection: an
// in-memory database exists per connection.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", smsg.ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connecting to %s: %v", smsg.ErrStorageUnavailable, path, err)
	}

	return db, nil
}

// User operations

func (s *SQLiteDatabase) CreateUser(ctx context.Context, username, publicKeyRef, privateKeyRef string) (smsg.UserID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError("starting transaction", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.GetUserByUsername(ctx, username); err == nil {
		return 0, fmt.Errorf("%w: %q", smsg.ErrDuplicateUsername, username)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, storageError("checking username", err)
	}

	user, err := qtx.InsertUser(ctx, sqlc.InsertUserParams{
		Username:      username,
		PublicKeyRef:  publicKeyRef,
		PrivateKeyRef: privateKeyRef,
		CreatedAt:     s.clock.Now().UTC(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %q", smsg.ErrDuplicateUsername, username)
		}
		return 0, storageError("inserting user", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageError("committing transaction", err)
	}

	s.logger.Debug("user created", "user_id", user.ID, "username", username)
	return smsg.UserID(user.ID), nil
}

func (s *SQLiteDatabase) FindUserByUsername(ctx context.Context, username string) (*smsg.User, error) {
	row, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError("finding user by username", err)
	}
	u := toUser(row)
	return &u, nil
}

func (s *SQLiteDatabase) FindUserByID(ctx context.Context, id smsg.UserID) (*smsg.User, error) {
	row, err := s.queries.GetUserByID(ctx, int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError("finding user by id", err)
	}
	u := toUser(row)
	return &u, nil
}

func (s *SQLiteDatabase) ListUsers(ctx context.Context) ([]smsg.User, error) {
	rows, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, storageError("listing users", err)
	}
	users := make([]smsg.User, len(rows))
	for i, r := range rows {
		users[i] = toUser(r)
	}
	return users, nil
}

// Message operations

// InsertMessage stores the message with sentAt = max(now, latest sentAt) so
// that a clock stepping backwards never reorders an inbox.
func (s *SQLiteDatabase) InsertMessage(ctx context.Context, senderID, recipientID smsg.UserID, ciphertext []byte) (smsg.MessageID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError("starting transaction", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	latest, err := qtx.GetLatestSentAt(ctx)
	if err != nil {
		return 0, storageError("reading latest sent_at", err)
	}
	sentAt := s.clock.Now().UnixNano()
	if sentAt < latest {
		sentAt = latest
	}

	msg, err := qtx.InsertMessage(ctx, sqlc.InsertMessageParams{
		SenderID:    int64(senderID),
		RecipientID: int64(recipientID),
		Ciphertext:  ciphertext,
		SentAt:      sentAt,
	})
	if err != nil {
		return 0, storageError("inserting message", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageError("committing transaction", err)
	}
	return smsg.MessageID(msg.ID), nil
}

func (s *SQLiteDatabase) FindMessageByID(ctx context.Context, id smsg.MessageID) (*smsg.Message, error) {
	row, err := s.queries.GetMessageByID(ctx, int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError("finding message", err)
	}
	m := toMessage(row)
	return &m, nil
}

func (s *SQLiteDatabase) ListInbox(ctx context.Context, userID smsg.UserID) ([]smsg.Message, error) {
	rows, err := s.queries.ListInboxMessages(ctx, int64(userID))
	if err != nil {
		return nil, storageError("listing inbox", err)
	}
	msgs := make([]smsg.Message, len(rows))
	for i, r := range rows {
		msgs[i] = toMessage(r)
	}
	return msgs, nil
}

func (s *SQLiteDatabase) MarkRead(ctx context.Context, id smsg.MessageID) error {
	n, err := s.queries.MarkMessageRead(ctx, int64(id))
	if err != nil {
		return storageError("marking message read", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing changed: either already read or no such message.
	if _, err := s.queries.GetMessageByID(ctx, int64(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", smsg.ErrMessageNotFound, id)
		}
		return storageError("finding message", err)
	}
	return nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(ctx context.Context, operation, parameters string) (*smsg.Operation, error) {
	row, err := s.queries.InsertOperation(ctx, sqlc.InsertOperationParams{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, storageError("creating operation", err)
	}
	op := toOperation(row)
	return &op, nil
}

func (s *SQLiteDatabase) FinishOperation(ctx context.Context, id int64, status string) error {
	err := s.queries.UpdateOperationFinished(ctx, sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: s.clock.Now().UTC(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return storageError("finishing operation", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(ctx context.Context, limit int) ([]smsg.Operation, error) {
	rows, err := s.queries.GetOperations(ctx, int64(limit))
	if err != nil {
		return nil, storageError("listing operations", err)
	}

	ops := make([]smsg.Operation, len(rows))
	for i, r := range rows {
		ops[i] = toOperation(r)
	}
	return ops, nil
}

func (s *SQLiteDatabase) MaxOperationID(ctx context.Context) (int64, error) {
	id, err := s.queries.GetMaxOperationID(ctx)
	if err != nil {
		return 0, storageError("getting max operation id", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate brings the schema up to date.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return storageError("backing up database", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func toUser(r sqlc.User) smsg.User {
	return smsg.NewUser(smsg.UserID(r.ID), r.Username, r.PublicKeyRef, r.PrivateKeyRef)
}

func toMessage(r sqlc.Message) smsg.Message {
	return smsg.Message{
		ID:          smsg.MessageID(r.ID),
		SenderID:    smsg.UserID(r.SenderID),
		RecipientID: smsg.UserID(r.RecipientID),
		Ciphertext:  r.Ciphertext,
		SentAt:      time.Unix(0, r.SentAt),
		Read:        r.Read,
	}
}

func toOperation(r sqlc.Operation) smsg.Operation {
	op := smsg.Operation{
		ID:         r.ID,
		Operation:  r.Operation,
		Parameters: r.Parameters,
		StartedAt:  r.StartedAt,
		Status:     r.Status,
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		op.FinishedAt = &t
	}
	return op
}

// storageError classifies a driver error. Constraint failures are integrity
// problems; context errors pass through; everything else means the engine
// could not do its job.
func storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s: %v", smsg.ErrConstraintViolation, op, err)
	}
	return fmt.Errorf("%w: %s: %v", smsg.ErrStorageUnavailable, op, err)
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
