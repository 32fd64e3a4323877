// Package session owns all live room and participant state in memory.
// Pure bookkeeping: no authorization, no media-engine calls, no I/O.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
)

// connKey is the composite key stored in the connection index. The index
// never holds a direct participant reference.
type connKey struct {
	RoomID        string
	ParticipantID string
}

// Registry is the process-wide session state. One instance per process,
// constructed at start, no teardown (state is not persisted). One mutex
// guards both maps so every participant insert/remove updates rooms and
// the connection index in a single critical section.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	connIndex map[string]connKey
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		connIndex: make(map[string]connKey),
	}
}

// EnsureRoom returns the existing room or creates an empty one.
func (r *Registry) EnsureRoom(roomID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureRoomLocked(roomID)
}

func (r *Registry) ensureRoomLocked(roomID string) *Room {
	if room, ok := r.rooms[roomID]; ok {
		return room
	}
	room := &Room{
		ID:           roomID,
		CreatedAt:    time.Now().UTC(),
		participants: make(map[string]*Participant),
	}
	r.rooms[roomID] = room
	log.Info().Str("module", "session.registry").Str("room", roomID).Msg("room created")
	return room
}

func (r *Registry) GetRoom(roomID string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// RoomInfo returns a consistent read-only snapshot of one room.
func (r *Registry) RoomInfo(roomID string) (RoomInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{
		ID:               room.ID,
		ParticipantCount: len(room.participants),
		CreatedAt:        room.CreatedAt,
	}, true
}

// ListRooms returns a read-only snapshot for the REST surface.
func (r *Registry) ListRooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{
			ID:               id,
			ParticipantCount: len(room.participants),
			CreatedAt:        room.CreatedAt,
		})
	}
	return out
}

// AddParticipant inserts a participant record and updates the connection
// index, creating the room if needed. An existing participant with the
// same identity id is replaced; its resources are NOT released here,
// callers clean up explicitly first.
func (r *Registry) AddParticipant(roomID string, id domain.Identity, connID string, sig SignalConnection) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.ensureRoomLocked(roomID)
	p := &Participant{
		ID:           id.ID,
		ConnectionID: connID,
		DisplayName:  id.DisplayName,
		Role:         id.Role,
		JoinedAt:     time.Now().UTC(),
		Signal:       sig,
		transports:   make(map[string]media.Transport),
		producers:    make(map[string]media.Producer),
		consumers:    make(map[string]media.Consumer),
	}
	if old, ok := room.participants[id.ID]; ok {
		delete(r.connIndex, old.ConnectionID)
	}
	room.participants[id.ID] = p
	r.connIndex[connID] = connKey{RoomID: roomID, ParticipantID: id.ID}
	log.Info().Str("module", "session.registry").
		Str("room", roomID).Str("participant", id.ID).Str("conn", connID).
		Msg("participant added")
	return p
}

// RemoveParticipantByConnection is the ONLY removal path. Graceful leave
// and abrupt disconnect both funnel through it, so cleanup semantics are
// identical. Deletes the room when it becomes empty. Returns the removed
// participant and its former room id, or found=false if the connection
// is unknown (already removed).
func (r *Registry) RemoveParticipantByConnection(connID string) (*Participant, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.connIndex[connID]
	if !ok {
		return nil, "", false
	}
	delete(r.connIndex, connID)
	room, ok := r.rooms[key.RoomID]
	if !ok {
		return nil, "", false
	}
	p, ok := room.participants[key.ParticipantID]
	if !ok || p.ConnectionID != connID {
		// Identity was replaced by a newer connection; only the index
		// entry had to go.
		return nil, "", false
	}
	delete(room.participants, key.ParticipantID)
	if len(room.participants) == 0 {
		delete(r.rooms, key.RoomID)
		log.Info().Str("module", "session.registry").Str("room", key.RoomID).Msg("room deleted (empty)")
	}
	log.Info().Str("module", "session.registry").
		Str("room", key.RoomID).Str("participant", key.ParticipantID).Str("conn", connID).
		Msg("participant removed")
	return p, key.RoomID, true
}

// ParticipantByConnection resolves a bare connection event to its owning
// participant.
func (r *Registry) ParticipantByConnection(connID string) (*Participant, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, key, ok := r.byConnLocked(connID)
	if !ok {
		return nil, "", false
	}
	return p, key.RoomID, true
}

func (r *Registry) byConnLocked(connID string) (*Participant, connKey, bool) {
	key, ok := r.connIndex[connID]
	if !ok {
		return nil, connKey{}, false
	}
	room, ok := r.rooms[key.RoomID]
	if !ok {
		return nil, connKey{}, false
	}
	p, ok := room.participants[key.ParticipantID]
	if !ok || p.ConnectionID != connID {
		return nil, connKey{}, false
	}
	return p, key, true
}

// FindByIdentity returns the connection currently holding the given
// identity in the room, if any. Used by the duplicate-join eviction.
func (r *Registry) FindByIdentity(roomID, identityID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return "", false
	}
	p, ok := room.participants[identityID]
	if !ok {
		return "", false
	}
	return p.ConnectionID, true
}

func (r *Registry) ListParticipants(roomID string) []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]*Participant, 0, len(room.participants))
	for _, p := range room.participants {
		out = append(out, p)
	}
	return out
}

// ListProducers flattens every producer of every participant in the room
// except the excluded one. Used to tell a newly joined participant what
// it can consume.
func (r *Registry) ListProducers(roomID, excluding string) []ProducerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]ProducerInfo, 0)
	for _, p := range room.participants {
		if p.ID == excluding {
			continue
		}
		for _, prod := range p.producers {
			out = append(out, ProducerInfo{
				ProducerID: prod.ID(),
				Kind:       prod.Kind(),
				OwnerID:    p.ID,
				OwnerName:  p.DisplayName,
				OwnerRole:  p.Role,
			})
		}
	}
	return out
}
