// Package app contains the room lifecycle controller: the state machine
// behind create/join/leave/disconnect and the media-session operations.
package app

import (
	"encoding/json"

	"github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/auth"
	"github.com/krishnabarasiya03/video-conf/internal/chat"
	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/session"
)

type Controller struct {
	Registry  *session.Registry
	Gateway   *media.Gateway
	Scheduler auth.Scheduler
	Chat      chat.Store

	newID func() string
}

func NewController(reg *session.Registry, gw *media.Gateway, sched auth.Scheduler, store chat.Store) *Controller {
	gen, err := nanoid.Standard(21)
	if err != nil {
		panic(err)
	}
	return &Controller{
		Registry:  reg,
		Gateway:   gw,
		Scheduler: sched,
		Chat:      store,
		newID:     gen,
	}
}

// Push event payloads. Each carries enough identifying data to be
// applied independently of delivery order across peers.

type peerEvent struct {
	Type          string      `json:"type"`
	ParticipantID string      `json:"participantId"`
	Name          string      `json:"name"`
	Role          domain.Role `json:"role"`
}

type newProducerEvent struct {
	Type          string      `json:"type"`
	ParticipantID string      `json:"participantId"`
	Name          string      `json:"name"`
	Role          domain.Role `json:"role"`
	ProducerID    string      `json:"producerId"`
	Kind          media.Kind  `json:"kind"`
}

// chatEvent inlines the message fields so every client renders from one
// flat authoritative event.
type chatEvent struct {
	Type string `json:"type"`
	domain.ChatMessage
}

func peerEventFor(typ string, p *session.Participant) peerEvent {
	return peerEvent{Type: typ, ParticipantID: p.ID, Name: p.DisplayName, Role: p.Role}
}

// broadcast marshals once and fans out to every participant in the room
// except excludeConn (empty means everyone). Slow receivers are dropped
// by the signal connection itself; here we only log.
func (c *Controller) broadcast(roomID, excludeConn string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.controller").Msg("broadcast marshal")
		return
	}
	for _, p := range c.Registry.ListParticipants(roomID) {
		if p.ConnectionID == excludeConn || p.Signal == nil {
			continue
		}
		if err := p.Signal.TrySend(b); err != nil {
			log.Warn().Err(err).Str("module", "app.controller").
				Str("room", roomID).Str("participant", p.ID).
				Msg("broadcast dropped")
		}
	}
}
