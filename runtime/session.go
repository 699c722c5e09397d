package runtime

import (
	"sync"
	"time"
)

// SessionState is the lifecycle of one connection's authentication.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticating
	Authenticated
	Disconnected
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// Session tracks the authentication state of one connection. A connection
// that does not authenticate within the handshake deadline is forcibly
// closed; any other verification failure returns it to Unauthenticated.
type Session struct {
	ConnID string

	mu       sync.Mutex
	state    SessionState
	userID   string
	username string
	deadline *time.Timer
}

// NewSession starts the handshake clock. onTimeout runs once if the session
// is still not Authenticated when the deadline elapses; it must close the
// underlying connection.
func NewSession(connID string, authTimeout time.Duration, onTimeout func()) *Session {
	s := &Session{ConnID: connID, state: Unauthenticated}
	s.deadline = time.AfterFunc(authTimeout, func() {
		s.mu.Lock()
		expired := s.state != Authenticated && s.state != Disconnected
		if expired {
			s.state = Disconnected
		}
		s.mu.Unlock()
		if expired {
			onTimeout()
		}
	})
	return s
}

// BeginAuth moves Unauthenticated → Authenticating. It reports false when a
// verification is already in flight or the session is past authentication.
func (s *Session) BeginAuth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unauthenticated {
		return false
	}
	s.state = Authenticating
	return true
}

// Succeed moves Authenticating → Authenticated, binds the identity, and
// stops the handshake clock. It reports false when the session already
// left Authenticating, such as the deadline firing mid-verification; the
// caller must not register the connection anywhere in that case.
func (s *Session) Succeed(userID, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticating {
		return false
	}
	s.state = Authenticated
	s.userID = userID
	s.username = username
	s.deadline.Stop()
	return true
}

// Fail returns a failed verification to Unauthenticated. The handshake
// clock keeps running: repeated failures still hit the hard deadline.
func (s *Session) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticating {
		s.state = Unauthenticated
	}
}

// Disconnect is terminal.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Disconnected
	s.deadline.Stop()
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the authenticated user, or ok=false before the handshake
// completes.
func (s *Session) Identity() (userID, username string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated {
		return "", "", false
	}
	return s.userID, s.username, true
}
