// Package event defines the broadcast events fanned out to subscribed
// connections. Each event names the wire event clients listen on and carries
// a projection payload, never a raw persisted record.
package event

import "chat-hub/domain"

type DomainEvent interface {
	// Name is the wire event name delivered to clients.
	Name() string
	// Payload is the JSON-encodable body of the event.
	Payload() any
}

// UserUpdated is broadcast to a user's own room after any profile change.
type UserUpdated struct {
	Profile domain.Profile
}

func (e UserUpdated) Name() string { return "addUser" }
func (e UserUpdated) Payload() any { return e.Profile }

// ChannelUpdated is broadcast to the channel room and the catalog room after
// creation, edits, membership changes and tombstoning.
type ChannelUpdated struct {
	Channel domain.ChannelView
}

func (e ChannelUpdated) Name() string { return "addChannel" }
func (e ChannelUpdated) Payload() any { return e.Channel }

// MessagePosted is broadcast to the channel room for every appended message.
type MessagePosted struct {
	Message domain.MessageView
}

func (e MessagePosted) Name() string { return "newMessage" }
func (e MessagePosted) Payload() any { return e.Message }
