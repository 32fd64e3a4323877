package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/session"
)

type CreateRoomResult struct {
	RoomID              string
	ReceiveCapabilities media.RTPCapabilities
}

type JoinRoomResult struct {
	RoomID              string
	ReceiveCapabilities media.RTPCapabilities
	ExistingProducers   []session.ProducerInfo
}

// CreateRoom authorizes against the scheduling oracle, then registers
// the caller as the room's first participant. The registry is mutated
// only after the oracle call completes; a rejection leaves state
// untouched.
func (c *Controller) CreateRoom(ctx context.Context, connID string, sig session.SignalConnection, id domain.Identity, roomID string) (CreateRoomResult, error) {
	if roomID == "" {
		roomID = c.newID()
	}
	if len(roomID) > domain.MaxRoomIDLen {
		return CreateRoomResult{}, domain.Validation("room id too long")
	}
	ok, err := c.Scheduler.CanCreate(ctx, id, roomID)
	if err != nil {
		return CreateRoomResult{}, fmt.Errorf("scheduler: %w", err)
	}
	if !ok {
		return CreateRoomResult{}, fmt.Errorf("%w: cannot create room %q", domain.ErrNotAuthorized, roomID)
	}
	c.admit(roomID, id, connID, sig)
	return CreateRoomResult{
		RoomID:              roomID,
		ReceiveCapabilities: c.Gateway.Capabilities(),
	}, nil
}

// JoinRoom is shaped like CreateRoom but requires the room to exist and
// additionally reports the producers already live in it.
func (c *Controller) JoinRoom(ctx context.Context, connID string, sig session.SignalConnection, id domain.Identity, roomID string) (JoinRoomResult, error) {
	ok, err := c.Scheduler.CanJoin(ctx, id, roomID)
	if err != nil {
		return JoinRoomResult{}, fmt.Errorf("scheduler: %w", err)
	}
	if !ok {
		return JoinRoomResult{}, fmt.Errorf("%w: cannot join room %q", domain.ErrNotAuthorized, roomID)
	}
	if _, ok := c.Registry.GetRoom(roomID); !ok {
		return JoinRoomResult{}, domain.NotFound("room", roomID)
	}
	p := c.admit(roomID, id, connID, sig)
	return JoinRoomResult{
		RoomID:              roomID,
		ReceiveCapabilities: c.Gateway.Capabilities(),
		ExistingProducers:   c.Registry.ListProducers(roomID, p.ID),
	}, nil
}

// admit inserts the participant and announces it. Create and Join share
// this path; on create the peerJoined broadcast simply reaches nobody.
// A connection holds at most one participant entry at a time: any entry
// it already holds (same room or another) is removed first, through the
// same path as leave, so the connection index never orphans an entry and
// engine resources cannot leak. A prior entry for the same identity on a
// different connection is force-released too (last connection wins).
func (c *Controller) admit(roomID string, id domain.Identity, connID string, sig session.SignalConnection) *session.Participant {
	c.remove(connID, false)
	if oldConn, ok := c.Registry.FindByIdentity(roomID, id.ID); ok && oldConn != connID {
		log.Info().Str("module", "app.controller").
			Str("room", roomID).Str("participant", id.ID).
			Msg("evicting previous connection of same identity")
		c.remove(oldConn, true)
	}
	p := c.Registry.AddParticipant(roomID, id, connID, sig)
	c.broadcast(roomID, connID, peerEventFor("peerJoined", p))
	return p
}

// Leave is the explicit JOINED -> LEFT transition.
func (c *Controller) Leave(connID string) {
	c.remove(connID, false)
}

// Disconnect is the implicit transition triggered by the transport.
// It MUST share one implementation path with Leave.
func (c *Controller) Disconnect(connID string) {
	c.remove(connID, false)
}

// remove funnels every exit path through the registry's single removal
// operation, then releases media resources and notifies the remaining
// peers. An unknown connection (leave raced with disconnect) is a silent
// no-op: no error, no broadcast, no double release.
func (c *Controller) remove(connID string, closeSignal bool) {
	p, roomID, ok := c.Registry.RemoveParticipantByConnection(connID)
	if !ok {
		return
	}
	consumers, producers, transports := p.Resources()
	c.Gateway.Release(p.ID, consumers, producers, transports)
	if closeSignal && p.Signal != nil {
		p.Signal.Close()
	}
	c.broadcast(roomID, connID, peerEventFor("peerLeft", p))
}
