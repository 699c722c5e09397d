// Package runtime owns the live, in-process state of the server: the room
// registry connecting broadcasts to subscribed connections, the per-entity
// locks serializing conflicting mutations, and the per-connection session
// state machine. It contains no business rules.
package runtime

import (
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/observability"
)

type Set map[string]struct{}

// Registry is the single-process room registry. Rooms are named multicast
// groups (per-user, per-channel, or the catalog); members are connection
// ids resolved to their EventSink at broadcast time.
type Registry struct {
	mu    sync.RWMutex
	log   *slog.Logger
	stats *observability.Stats

	// Sinks maps connection id to its delivery queue.
	Sinks map[string]contract.EventSink
	// RoomMembers maps room to the connection ids subscribed to it.
	RoomMembers map[domain.RoomID]Set
	// connRooms is the reverse index used to clean up on disconnect.
	connRooms map[string]map[domain.RoomID]struct{}
}

func NewRegistry(log *slog.Logger, stats *observability.Stats) *Registry {
	return &Registry{
		log:         log,
		stats:       stats,
		Sinks:       make(map[string]contract.EventSink),
		RoomMembers: make(map[domain.RoomID]Set),
		connRooms:   make(map[string]map[domain.RoomID]struct{}),
	}
}

// Subscribe registers a connection's sink and adds it to a room. Subscribing
// twice is a no-op. The room is initialized on the fly if needed.
func (r *Registry) Subscribe(connID string, room domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.Sinks[connID]; !known {
		r.stats.ConnectionOpened()
	}
	r.Sinks[connID] = sink

	if _, ok := r.RoomMembers[room]; !ok {
		r.RoomMembers[room] = make(Set)
		r.stats.RoomCreated()
	}
	r.RoomMembers[room][connID] = struct{}{}

	if _, ok := r.connRooms[connID]; !ok {
		r.connRooms[connID] = make(map[domain.RoomID]struct{})
	}
	r.connRooms[connID][room] = struct{}{}
}

// Unsubscribe removes a connection from one room. Unsubscribing a non-member
// is a no-op. Empty room sets are dropped to avoid leaking room entries.
func (r *Registry) Unsubscribe(connID string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked(connID, room)
}

func (r *Registry) unsubscribeLocked(connID string, room domain.RoomID) {
	members, ok := r.RoomMembers[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.RoomMembers, room)
		r.stats.RoomDropped()
	}
	if rooms, ok := r.connRooms[connID]; ok {
		delete(rooms, room)
	}
}

// DropConnection unsubscribes a connection from every room and forgets its
// sink. Called once when the transport closes.
func (r *Registry) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.connRooms[connID] {
		r.unsubscribeLocked(connID, room)
	}
	delete(r.connRooms, connID)
	if _, known := r.Sinks[connID]; known {
		delete(r.Sinks, connID)
		r.stats.ConnectionClosed()
	}
}

// Broadcast delivers an event to every connection subscribed to the room at
// the moment of the call. Delivery enqueues into each sink's ordered queue
// under the registry lock, so two broadcasts issued in sequence by the same
// caller reach every common recipient in issue order.
func (r *Registry) Broadcast(room domain.RoomID, e event.DomainEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[room]
	if !ok {
		return
	}
	for connID := range members {
		sink, exists := r.Sinks[connID]
		if !exists {
			continue
		}
		if err := sink.Consume(e); err != nil {
			r.log.Warn("event dropped for slow connection",
				"conn_id", connID, "room", room, "event", e.Name(), "error", err)
			r.stats.EventDropped()
		}
	}
	r.stats.EventBroadcast()
}
