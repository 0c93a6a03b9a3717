package smsg

import "context"

// Repository provides durable storage for users and messages.
// Connectivity failures are reported as ErrStorageUnavailable; the repository
// never retries.
type Repository interface {
	// CreateUser inserts a user and returns its id.
	// Returns ErrDuplicateUsername if the username is taken.
	CreateUser(ctx context.Context, username, publicKeyRef, privateKeyRef string) (UserID, error)

	// FindUserByUsername returns the user with exactly this username, or nil.
	FindUserByUsername(ctx context.Context, username string) (*User, error)

	// FindUserByID returns the user with this id, or nil.
	FindUserByID(ctx context.Context, id UserID) (*User, error)

	// ListUsers returns all users ordered by username ascending.
	ListUsers(ctx context.Context) ([]User, error)

	// InsertMessage stores a new unread message and assigns its sentAt.
	InsertMessage(ctx context.Context, senderID, recipientID UserID, ciphertext []byte) (MessageID, error)

	// FindMessageByID returns the message with this id, or nil.
	FindMessageByID(ctx context.Context, id MessageID) (*Message, error)

	// ListInbox returns the messages addressed to userID, most recent first.
	ListInbox(ctx context.Context, userID UserID) ([]Message, error)

	// MarkRead sets the read flag. Marking an already-read message is a no-op.
	// Returns ErrMessageNotFound for an unknown id.
	MarkRead(ctx context.Context, id MessageID) error
}
