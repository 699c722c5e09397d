package domain

import "time"

// Channel is the full persisted channel record. Owner is immutable and must
// stay a member at all times. Alive=false tombstones the channel: it is kept
// on disk but excluded from discovery and membership operations.
type Channel struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Avatar         string    `json:"avatar"`
	Public         bool      `json:"public"`
	Members        IDSet     `json:"members"`
	Banned         IDSet     `json:"banned"`
	Officers       IDSet     `json:"officers"`
	PinnedMessages []string  `json:"pinnedMessages"`
	Alive          bool      `json:"alive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ChannelView is the projection broadcast to rooms and returned to callers.
type ChannelView struct {
	ID             string    `json:"_id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Avatar         string    `json:"avatar"`
	Public         bool      `json:"public"`
	Members        []string  `json:"members"`
	Banned         []string  `json:"banned"`
	Officers       []string  `json:"officers"`
	PinnedMessages []string  `json:"pinnedMessages"`
	Alive          bool      `json:"alive"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (c Channel) View() ChannelView {
	return ChannelView{
		ID:             c.ID,
		Owner:          c.Owner,
		Name:           c.Name,
		Description:    c.Description,
		Avatar:         c.Avatar,
		Public:         c.Public,
		Members:        c.Members.Values(),
		Banned:         c.Banned.Values(),
		Officers:       c.Officers.Values(),
		PinnedMessages: c.PinnedMessages,
		Alive:          c.Alive,
		CreatedAt:      c.CreatedAt,
	}
}
