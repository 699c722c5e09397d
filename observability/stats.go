// Package observability aggregates runtime counters consumed by the
// monitoring worker. Counters are atomic; reading them never blocks the
// registry or the gateway.
package observability

import "sync/atomic"

// Stats tracks live gauges and cumulative counters for the broadcast engine.
type Stats struct {
	connections    int64
	rooms          int64
	sessions       int64
	broadcasts     uint64
	droppedEvents  uint64
	authFailures   uint64
	authSuccesses  uint64
	storedMessages uint64
}

func NewStats() *Stats { return &Stats{} }

func (s *Stats) ConnectionOpened() { atomic.AddInt64(&s.connections, 1) }
func (s *Stats) ConnectionClosed() { atomic.AddInt64(&s.connections, -1) }
func (s *Stats) RoomCreated()      { atomic.AddInt64(&s.rooms, 1) }
func (s *Stats) RoomDropped()      { atomic.AddInt64(&s.rooms, -1) }
func (s *Stats) SessionStarted()   { atomic.AddInt64(&s.sessions, 1) }
func (s *Stats) SessionEnded()     { atomic.AddInt64(&s.sessions, -1) }
func (s *Stats) EventBroadcast()   { atomic.AddUint64(&s.broadcasts, 1) }
func (s *Stats) EventDropped()     { atomic.AddUint64(&s.droppedEvents, 1) }
func (s *Stats) AuthFailed()       { atomic.AddUint64(&s.authFailures, 1) }
func (s *Stats) AuthSucceeded()    { atomic.AddUint64(&s.authSuccesses, 1) }
func (s *Stats) MessageStored()    { atomic.AddUint64(&s.storedMessages, 1) }

// Snapshot is a consistent-enough copy for logging; individual fields are
// read atomically but not as one unit.
type Snapshot struct {
	Connections    int64
	Rooms          int64
	Sessions       int64
	Broadcasts     uint64
	DroppedEvents  uint64
	AuthFailures   uint64
	AuthSuccesses  uint64
	StoredMessages uint64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Connections:    atomic.LoadInt64(&s.connections),
		Rooms:          atomic.LoadInt64(&s.rooms),
		Sessions:       atomic.LoadInt64(&s.sessions),
		Broadcasts:     atomic.LoadUint64(&s.broadcasts),
		DroppedEvents:  atomic.LoadUint64(&s.droppedEvents),
		AuthFailures:   atomic.LoadUint64(&s.authFailures),
		AuthSuccesses:  atomic.LoadUint64(&s.authSuccesses),
		StoredMessages: atomic.LoadUint64(&s.storedMessages),
	}
}
