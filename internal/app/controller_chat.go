package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
)

const chatSaveTimeout = 5 * time.Second

// SendChat validates the text, broadcasts the message to the WHOLE room
// including the sender, and fires the persistence call without waiting
// for it. A persistence failure is logged, never surfaced, and never
// blocks the broadcast.
func (c *Controller) SendChat(connID, text string) (domain.ChatMessage, error) {
	p, roomID, ok := c.Registry.ParticipantByConnection(connID)
	if !ok {
		return domain.ChatMessage{}, domain.ErrNotJoined
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.Validation("empty chat text")
	}
	if len(text) > domain.MaxChatTextLen {
		return domain.ChatMessage{}, domain.Validation("chat text too long")
	}
	msg := domain.ChatMessage{
		ID:         c.newID(),
		SenderID:   p.ID,
		SenderName: p.DisplayName,
		SenderRole: p.Role,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	}
	c.broadcast(roomID, "", chatEvent{Type: "chat:message", ChatMessage: msg})

	if c.Chat != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), chatSaveTimeout)
			defer cancel()
			if err := c.Chat.Save(ctx, roomID, msg); err != nil {
				log.Warn().Err(err).Str("module", "app.controller").
					Str("room", roomID).Str("message", msg.ID).
					Msg("chat persistence failed")
			}
		}()
	}
	return msg, nil
}
