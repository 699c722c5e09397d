// Package domain contains the core entities of the chat system: users,
// channels, messages and the rooms events fan out to. No runtime, network,
// or storage logic should be added here.
package domain

// RoomID names a multicast group of subscribed connections.
type RoomID string

// CatalogRoom receives channel-list-level changes (creation, deletion);
// every authenticated connection subscribes to it.
const CatalogRoom RoomID = "catalog"

// UserRoom is the room carrying profile updates for a single user.
func UserRoom(userID string) RoomID { return RoomID("user:" + userID) }

// ChannelRoom is the room carrying channel updates and new messages.
func ChannelRoom(channelID string) RoomID { return RoomID("channel:" + channelID) }
