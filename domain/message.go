package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry of a channel's append-only log. Messages are never
// physically deleted; Alive=false is a logical tombstone and Edited marks
// in-place text updates.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChannelID string    `json:"channel"`
	Author    string    `json:"user"`
	Text      string    `json:"messageText"`
	File      string    `json:"file,omitempty"`
	At        time.Time `json:"time"`
	Edited    bool      `json:"edited"`
	Alive     bool      `json:"alive"`
}

// MessageView is the projection delivered to clients.
type MessageView struct {
	ID        string    `json:"_id"`
	ChannelID string    `json:"channel"`
	Author    string    `json:"user"`
	Text      string    `json:"messageText"`
	File      string    `json:"file,omitempty"`
	At        time.Time `json:"time"`
	Edited    bool      `json:"edited"`
	Alive     bool      `json:"alive"`
}

func (m Message) View() MessageView {
	return MessageView{
		ID:        m.ID.String(),
		ChannelID: m.ChannelID,
		Author:    m.Author,
		Text:      m.Text,
		File:      m.File,
		At:        m.At,
		Edited:    m.Edited,
		Alive:     m.Alive,
	}
}
