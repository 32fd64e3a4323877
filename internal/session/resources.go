package session

import (
	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
)

// Resource-handle registration: keyed inserts/reads scoped to one
// participant, resolved via the connection index. Every operation fails
// with domain.ErrNotJoined when the connection is gone, which makes a
// write that races a removal a safe no-op for the caller.

func (r *Registry) AttachTransport(connID string, t media.Transport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _, ok := r.byConnLocked(connID)
	if !ok {
		return domain.ErrNotJoined
	}
	p.transports[t.ID()] = t
	return nil
}

func (r *Registry) Transport(connID, transportID string) (media.Transport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, _, ok := r.byConnLocked(connID)
	if !ok {
		return nil, domain.ErrNotJoined
	}
	t, ok := p.transports[transportID]
	if !ok {
		return nil, domain.NotFound("transport", transportID)
	}
	return t, nil
}

func (r *Registry) AttachProducer(connID string, prod media.Producer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _, ok := r.byConnLocked(connID)
	if !ok {
		return domain.ErrNotJoined
	}
	p.producers[prod.ID()] = prod
	return nil
}

// ProducerInRoom looks a producer up across the whole room; consumers
// reference producers owned by other participants.
func (r *Registry) ProducerInRoom(roomID, producerID string) (media.Producer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.NotFound("room", roomID)
	}
	for _, p := range room.participants {
		if prod, ok := p.producers[producerID]; ok {
			return prod, nil
		}
	}
	return nil, domain.NotFound("producer", producerID)
}

func (r *Registry) AttachConsumer(connID string, c media.Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _, ok := r.byConnLocked(connID)
	if !ok {
		return domain.ErrNotJoined
	}
	p.consumers[c.ID()] = c
	return nil
}

func (r *Registry) Consumer(connID, consumerID string) (media.Consumer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, _, ok := r.byConnLocked(connID)
	if !ok {
		return nil, domain.ErrNotJoined
	}
	c, ok := p.consumers[consumerID]
	if !ok {
		return nil, domain.NotFound("consumer", consumerID)
	}
	return c, nil
}

func (r *Registry) SetReceiveCapabilities(connID string, caps media.RTPCapabilities) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _, ok := r.byConnLocked(connID)
	if !ok {
		return domain.ErrNotJoined
	}
	p.recvCaps = &caps
	return nil
}

func (r *Registry) ReceiveCapabilities(connID string) (*media.RTPCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, _, ok := r.byConnLocked(connID)
	if !ok {
		return nil, domain.ErrNotJoined
	}
	return p.recvCaps, nil
}
