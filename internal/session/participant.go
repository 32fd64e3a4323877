package session

import (
	"time"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
)

// SignalConnection is the server-push channel of a participant. Owned by
// the signaling adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend([]byte) error
	Close()
}

// Room owns its participants. A room with zero participants must not
// persist; the registry deletes it inside RemoveParticipantByConnection.
type Room struct {
	ID        string
	CreatedAt time.Time

	participants map[string]*Participant
}

func (r *Room) ParticipantCount() int { return len(r.participants) }

// RoomInfo is a read-only view for APIs.
type RoomInfo struct {
	ID               string    `json:"id"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Participant is one identity's presence in one room, bound to one
// signaling connection. It exclusively owns its transports, producers
// and consumers; no handle is ever shared across participants.
type Participant struct {
	ID           string
	ConnectionID string
	DisplayName  string
	Role         domain.Role
	JoinedAt     time.Time
	Signal       SignalConnection

	transports map[string]media.Transport
	producers  map[string]media.Producer
	consumers  map[string]media.Consumer
	recvCaps   *media.RTPCapabilities
}

// ProducerInfo is the flattened producer view sent to peers.
type ProducerInfo struct {
	ProducerID string      `json:"producerId"`
	Kind       media.Kind  `json:"kind"`
	OwnerID    string      `json:"participantId"`
	OwnerName  string      `json:"name"`
	OwnerRole  domain.Role `json:"role"`
}

// Resources snapshots the participant's handles for cascade release.
// Valid to call without the registry lock only after the participant has
// been removed (the caller is then the sole owner).
func (p *Participant) Resources() (consumers []media.Consumer, producers []media.Producer, transports []media.Transport) {
	consumers = make([]media.Consumer, 0, len(p.consumers))
	for _, c := range p.consumers {
		consumers = append(consumers, c)
	}
	producers = make([]media.Producer, 0, len(p.producers))
	for _, prod := range p.producers {
		producers = append(producers, prod)
	}
	transports = make([]media.Transport, 0, len(p.transports))
	for _, t := range p.transports {
		transports = append(transports, t)
	}
	return consumers, producers, transports
}
