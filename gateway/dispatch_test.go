package gateway

import (
	"log/slog"
	"testing"
	"time"

	"chat-hub/domain"
	"chat-hub/mocks"
	"chat-hub/runtime"
	"chat-hub/services"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatcher_BindIdentity_Skips_Dead_Session(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockIRegistry(ctrl)
	// A connection whose session already ended must not be registered
	registry.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	d := NewDispatcher(nil, nil, nil, nil, nil, registry, slog.Default())
	conn := NewConn("conn-1", nil, 4, slog.Default())

	fired := make(chan struct{})
	session := runtime.NewSession("conn-1", 20*time.Millisecond, func() {
		close(fired)
	})
	req.True(session.BeginAuth())
	select {
	case <-fired:
	case <-time.After(time.Second):
		req.Fail("handshake deadline never fired")
	}

	d.bindIdentity(session, conn, services.AuthResult{
		Profile: domain.Profile{ID: "user-1", Username: "alice", Channels: []string{"chan-1"}},
		Token:   "token",
	})

	// No emits were queued for the dead connection either
	select {
	case msg := <-conn.send:
		req.Fail("unexpected outbound event", "event %s", msg.Event)
	default:
	}
}
