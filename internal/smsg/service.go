package smsg

import (
	"context"
	"fmt"
	"strings"
)

// MessagingService orchestrates registration, sending and reading.
//
// Each workflow runs its steps strictly in order and stops at the first
// failure: encryption precedes persistence on send, and decryption precedes
// the read-flag update on read. No step is retried here.
type MessagingService struct {
	repo    Repository
	gateway *CipherGateway
	logger  Logger
}

// NewMessagingService creates a new MessagingService with the provided dependencies.
func NewMessagingService(repo Repository, gateway *CipherGateway, logger Logger) *MessagingService {
	return &MessagingService{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
	}
}

// Register creates a user together with a freshly generated key pair.
//
// The pair is generated under staging names and only installed at the user's
// key paths once the user row exists, so a registration that loses a race for
// the same name never touches the winner's keys.
func (s *MessagingService) Register(ctx context.Context, username string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("checking for existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	pending, err := s.gateway.StageKeyPair(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}
	defer pending.Discard()

	pub, priv := pending.PublicKeyRef(), pending.PrivateKeyRef()
	id, err := s.repo.CreateUser(ctx, username, pub, priv)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if err := pending.Install(); err != nil {
		s.logger.Error("user stored without key pair", "username", username, "id", id, "error", err)
		return nil, fmt.Errorf("installing key pair: %w", err)
	}

	s.logger.Info("user registered", "username", username, "id", id)
	user := NewUser(id, username, pub, priv)
	return &user, nil
}

// Login resolves username into a Session.
func (s *MessagingService) Login(ctx context.Context, username string) (*Session, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return NewSession(*user), nil
}

// ListUsers returns all registered users ordered by username.
func (s *MessagingService) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Send encrypts plaintext for recipient and stores it as an unread message.
// Validation order: recipient exists, recipient differs from sender,
// plaintext is not blank. A failed encryption stores nothing.
func (s *MessagingService) Send(ctx context.Context, sess *Session, recipient, plaintext string) (MessageID, error) {
	sender := sess.User()

	to, err := s.repo.FindUserByUsername(ctx, recipient)
	if err != nil {
		return 0, fmt.Errorf("finding recipient: %w", err)
	}
	if to == nil {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, recipient)
	}
	if to.ID == sender.ID {
		return 0, ErrSelfSendRejected
	}
	if strings.TrimSpace(plaintext) == "" {
		return 0, ErrEmptyMessage
	}

	ciphertext, err := s.gateway.Encrypt(ctx, to.Username, plaintext)
	if err != nil {
		return 0, fmt.Errorf("encrypting message: %w", err)
	}

	id, err := s.repo.InsertMessage(ctx, sender.ID, to.ID, ciphertext)
	if err != nil {
		return 0, fmt.Errorf("storing message: %w", err)
	}

	s.logger.Info("message sent", "id", id, "sender", sender.Username, "recipient", to.Username)
	return id, nil
}

// Inbox returns the session user's messages, most recent first, with sender
// names resolved. Messages stay encrypted.
func (s *MessagingService) Inbox(ctx context.Context, sess *Session) ([]InboxEntry, error) {
	messages, err := s.repo.ListInbox(ctx, sess.User().ID)
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}

	names := make(map[UserID]string)
	entries := make([]InboxEntry, len(messages))
	for i, m := range messages {
		name, ok := names[m.SenderID]
		if !ok {
			sender, err := s.repo.FindUserByID(ctx, m.SenderID)
			if err != nil {
				return nil, fmt.Errorf("resolving sender: %w", err)
			}
			name = "unknown"
			if sender != nil {
				name = sender.Username
			}
			names[m.SenderID] = name
		}
		entries[i] = InboxEntry{Message: m, SenderName: name}
	}
	return entries, nil
}

// Read decrypts message id and then marks it read. The message must be
// addressed to the session user.
//
// If decryption fails the message stays unread. If decryption succeeds but the
// read flag cannot be stored, the plaintext is returned together with the
// error; reading again is safe.
func (s *MessagingService) Read(ctx context.Context, sess *Session, id MessageID) (string, error) {
	owner := sess.User()

	msg, err := s.repo.FindMessageByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("finding message: %w", err)
	}
	if msg == nil || msg.RecipientID != owner.ID {
		return "", fmt.Errorf("%w: %d", ErrMessageNotFound, id)
	}

	plaintext, err := s.gateway.Decrypt(ctx, owner.Username, msg.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypting message: %w", err)
	}

	if err := s.repo.MarkRead(ctx, id); err != nil {
		return plaintext, fmt.Errorf("marking message read: %w", err)
	}

	s.logger.Debug("message read", "id", id, "username", owner.Username)
	return plaintext, nil
}

// ReadByIndex reads the index-th message (1-based) of the current inbox.
func (s *MessagingService) ReadByIndex(ctx context.Context, sess *Session, index int) (string, error) {
	messages, err := s.repo.ListInbox(ctx, sess.User().ID)
	if err != nil {
		return "", fmt.Errorf("listing inbox: %w", err)
	}
	if index < 1 || index > len(messages) {
		return "", fmt.Errorf("%w: no message at index %d", ErrMessageNotFound, index)
	}
	return s.Read(ctx, sess, messages[index-1].ID)
}

// Stats counts the session user's received, read and unread messages.
func (s *MessagingService) Stats(ctx context.Context, sess *Session) (Stats, error) {
	messages, err := s.repo.ListInbox(ctx, sess.User().ID)
	if err != nil {
		return Stats{}, fmt.Errorf("listing inbox: %w", err)
	}

	stats := Stats{Received: len(messages)}
	for _, m := range messages {
		if m.Read {
			stats.Read++
		} else {
			stats.Unread++
		}
	}
	return stats, nil
}
