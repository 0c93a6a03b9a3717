package smsg

import (
	"fmt"
	"time"
)

// UserID is the storage-assigned identifier of a User.
type UserID int64

// MessageID is the storage-assigned identifier of a Message.
type MessageID int64

// User is a registered participant. Users are created once together with
// their key pair and never updated afterwards.
type User struct {
	ID           UserID
	Username     string
	PublicKeyRef string
	// privateKeyRef is unexported so it never leaks through %+v, JSON or
	// reflection-based printing. Use PrivateKeyRef to read it.
	privateKeyRef string
}

// NewUser builds a User value. Both key references must be set.
func NewUser(id UserID, username, publicKeyRef, privateKeyRef string) User {
	return User{
		ID:            id,
		Username:      username,
		PublicKeyRef:  publicKeyRef,
		privateKeyRef: privateKeyRef,
	}
}

// PrivateKeyRef returns the storage-relative path of the user's private key.
func (u User) PrivateKeyRef() string {
	return u.privateKeyRef
}

// String renders the user without its private key reference.
func (u User) String() string {
	return fmt.Sprintf("User{id=%d, username=%q, publicKey=%q}", u.ID, u.Username, u.PublicKeyRef)
}

// GoString keeps %#v from exposing the private key reference.
func (u User) GoString() string {
	return u.String()
}

// Message is an encrypted message addressed to one recipient. Only the read
// flag ever changes after creation, and only from false to true.
type Message struct {
	ID          MessageID
	SenderID    UserID
	RecipientID UserID
	Ciphertext  []byte
	SentAt      time.Time
	Read        bool
}

// String renders the message metadata without the ciphertext.
func (m Message) String() string {
	return fmt.Sprintf("Message{id=%d, sender=%d, recipient=%d, sentAt=%s, read=%t}",
		m.ID, m.SenderID, m.RecipientID, m.SentAt.Format(time.RFC3339), m.Read)
}

// InboxEntry is a message as presented to its recipient, with the sender resolved.
type InboxEntry struct {
	Message
	SenderName string
}

// Stats summarizes the read state of a user's inbox.
type Stats struct {
	Received int
	Read     int
	Unread   int
}

// ReadRate returns the percentage of received messages that have been read.
// It returns 0 when nothing has been received.
func (s Stats) ReadRate() float64 {
	if s.Received == 0 {
		return 0
	}
	return float64(s.Read) * 100 / float64(s.Received)
}
