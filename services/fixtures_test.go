package services

import (
	"log/slog"
	"sync"
	"testing"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// recordingSink collects the events delivered to one connection.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.events))
	for _, e := range s.events {
		names = append(names, e.Name())
	}
	return names
}

// fixture wires real repositories on a throwaway badger store with a real
// registry, so service tests exercise the same stack as production.
type fixture struct {
	users       repositories.IUserRepository
	channels    repositories.IChannelRepository
	messages    repositories.IMessageRepository
	memberships repositories.IMembershipRepository
	registry    *runtime.Registry
	locks       *runtime.EntityLocks
	stats       *observability.Stats
	auth        IAuthService
	directory   IDirectoryService
	membership  IMembershipService
	channelSvc  IChannelService
	messageSvc  IMessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	stats := observability.NewStats()
	registry := runtime.NewRegistry(log, stats)
	locks := runtime.NewEntityLocks()
	rules := testRules()

	f := &fixture{
		users:       repositories.NewUserRepository(db),
		channels:    repositories.NewChannelRepository(db),
		messages:    repositories.NewMessageRepository(db, log, 10),
		memberships: repositories.NewMembershipRepository(db),
		registry:    registry,
		locks:       locks,
		stats:       stats,
	}
	f.auth = NewAuthService(f.users, testIssuer(), rules, stats)
	f.directory = NewDirectoryService(f.users, f.channels)
	f.membership = NewMembershipService(f.users, f.channels, f.memberships, registry, locks, rules, log)
	f.channelSvc = NewChannelService(f.users, f.channels, f.memberships, registry, locks, rules, log)
	f.messageSvc = NewMessageService(f.channels, f.messages, registry, locks, stats, log)
	return f
}

// register creates a user through the real auth service and returns its id.
func (f *fixture) register(t *testing.T, username string) string {
	t.Helper()
	result, err := f.auth.Register(username, "ComplexPass123")
	require.NoError(t, err)
	return result.Profile.ID
}

// createChannel creates a public channel owned by ownerID and returns its id.
func (f *fixture) createChannel(t *testing.T, ownerID, name string) string {
	t.Helper()
	view, err := f.channelSvc.CreateChannel(ownerID, name, "", true)
	require.NoError(t, err)
	return view.ID
}

// membership loads both sides of the invariant for assertions.
func (f *fixture) membershipState(t *testing.T, userID, channelID string) (userHas, channelHas bool) {
	t.Helper()
	user, err := f.users.GetUser(userID)
	require.NoError(t, err)
	channel, err := f.channels.GetChannel(channelID)
	require.NoError(t, err)
	return user.Channels.Has(channelID), channel.Members.Has(userID)
}

func (f *fixture) subscribe(connID string, room domain.RoomID) *recordingSink {
	sink := &recordingSink{}
	f.registry.Subscribe(connID, room, sink)
	return sink
}
