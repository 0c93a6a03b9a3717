package smsg

// Session identifies the user a workflow acts on behalf of. It is obtained
// from MessagingService.Login and passed explicitly to every call.
type Session struct {
	user User
}

// NewSession creates a session for an already-resolved user.
func NewSession(user User) *Session {
	return &Session{user: user}
}

// User returns the logged-in user.
func (s *Session) User() User {
	return s.user
}
