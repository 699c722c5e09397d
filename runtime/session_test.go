package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSession_Handshake_Success(t *testing.T) {
	req := require.New(t)
	session := NewSession("conn-1", time.Minute, func() {
		req.Fail("timeout must not fire after a successful handshake")
	})

	req.Equal(Unauthenticated, session.State())
	_, _, ok := session.Identity()
	req.False(ok)

	req.True(session.BeginAuth())
	req.Equal(Authenticating, session.State())

	// A second handshake attempt while one is in flight is refused
	req.False(session.BeginAuth())

	req.True(session.Succeed("user-1", "alice"))
	req.Equal(Authenticated, session.State())

	userID, username, ok := session.Identity()
	req.True(ok)
	req.Equal("user-1", userID)
	req.Equal("alice", username)

	// Authenticated is sticky: no new handshake can start
	req.False(session.BeginAuth())
}

func TestSession_Failed_Attempt_Allows_Retry(t *testing.T) {
	req := require.New(t)
	session := NewSession("conn-1", time.Minute, func() {})

	req.True(session.BeginAuth())
	session.Fail()
	req.Equal(Unauthenticated, session.State())

	// The connection may try again until the deadline
	req.True(session.BeginAuth())
}

func TestSession_Deadline_Fires_When_Unauthenticated(t *testing.T) {
	req := require.New(t)
	fired := make(chan struct{})
	session := NewSession("conn-1", 20*time.Millisecond, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		req.Fail("handshake deadline never fired")
	}
	req.Equal(Disconnected, session.State())
}

func TestSession_Deadline_During_Verification_Rejects_Succeed(t *testing.T) {
	req := require.New(t)
	fired := make(chan struct{})
	session := NewSession("conn-1", 20*time.Millisecond, func() {
		close(fired)
	})

	// The deadline elapses while a verification is in flight
	req.True(session.BeginAuth())
	select {
	case <-fired:
	case <-time.After(time.Second):
		req.Fail("handshake deadline never fired")
	}

	req.False(session.Succeed("user-1", "alice"))
	req.Equal(Disconnected, session.State())
	_, _, ok := session.Identity()
	req.False(ok)
}

func TestSession_Deadline_Keeps_Running_Across_Failures(t *testing.T) {
	req := require.New(t)
	fired := make(chan struct{})
	session := NewSession("conn-1", 50*time.Millisecond, func() {
		close(fired)
	})

	// Failed attempts never reset the clock
	req.True(session.BeginAuth())
	session.Fail()
	req.True(session.BeginAuth())
	session.Fail()

	select {
	case <-fired:
	case <-time.After(time.Second):
		req.Fail("handshake deadline never fired")
	}
}

func TestSession_Disconnect_Stops_The_Clock(t *testing.T) {
	req := require.New(t)
	session := NewSession("conn-1", 20*time.Millisecond, func() {
		req.Fail("timeout must not fire after disconnect")
	})

	session.Disconnect()
	req.Equal(Disconnected, session.State())
	time.Sleep(60 * time.Millisecond)
}

func TestSessionState_String(t *testing.T) {
	req := require.New(t)
	req.Equal("unauthenticated", Unauthenticated.String())
	req.Equal("authenticating", Authenticating.String())
	req.Equal("authenticated", Authenticated.String())
	req.Equal("disconnected", Disconnected.String())
}
