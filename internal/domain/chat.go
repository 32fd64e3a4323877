package domain

import "time"

// ChatMessage is the authoritative record broadcast to the whole room,
// including the sender. Clients render from this event stream instead of
// echoing locally.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	SenderRole Role      `json:"senderRole"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}
