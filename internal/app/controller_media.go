package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/session"
)

type CreateTransportResult struct {
	TransportID string
	Params      json.RawMessage
}

type ConsumeResult struct {
	ConsumerID     string
	Kind           media.Kind
	Codec          media.CodecParameters
	ProducerPaused bool
}

// CreateTransport allocates a transport on the engine and registers the
// handle with the caller's participant. If the participant vanished
// while the engine call was in flight, the handle is closed instead of
// attached: a stale write after delete is a safe no-op.
func (c *Controller) CreateTransport(ctx context.Context, connID string) (CreateTransportResult, error) {
	if _, _, ok := c.Registry.ParticipantByConnection(connID); !ok {
		return CreateTransportResult{}, domain.ErrNotJoined
	}
	t, params, err := c.Gateway.CreateTransport(ctx)
	if err != nil {
		return CreateTransportResult{}, err
	}
	if err := c.Registry.AttachTransport(connID, t); err != nil {
		_ = t.Close()
		return CreateTransportResult{}, err
	}
	return CreateTransportResult{TransportID: t.ID(), Params: params}, nil
}

func (c *Controller) ConnectTransport(ctx context.Context, connID, transportID string, remote json.RawMessage) error {
	t, err := c.Registry.Transport(connID, transportID)
	if err != nil {
		return err
	}
	return c.Gateway.ConnectTransport(ctx, t, remote)
}

// Produce registers a new outbound track and announces it to every
// other participant in the room.
func (c *Controller) Produce(ctx context.Context, connID, transportID string, kind media.Kind, codec media.CodecParameters, metadata map[string]any) (string, error) {
	if !kind.Valid() {
		return "", domain.Validation("kind must be audio or video")
	}
	p, roomID, ok := c.Registry.ParticipantByConnection(connID)
	if !ok {
		return "", domain.ErrNotJoined
	}
	t, err := c.Registry.Transport(connID, transportID)
	if err != nil {
		return "", err
	}
	prod, err := c.Gateway.Produce(ctx, t, kind, codec, metadata)
	if err != nil {
		return "", err
	}
	if err := c.Registry.AttachProducer(connID, prod); err != nil {
		_ = prod.Close()
		return "", err
	}
	c.broadcast(roomID, connID, newProducerEvent{
		Type:          "newProducer",
		ParticipantID: p.ID,
		Name:          p.DisplayName,
		Role:          p.Role,
		ProducerID:    prod.ID(),
		Kind:          prod.Kind(),
	})
	return prod.ID(), nil
}

// Consume creates a paused receiver for a producer in the caller's
// room. The capability check runs first and a mismatch fails fast
// without creating a consumer handle.
func (c *Controller) Consume(ctx context.Context, connID, transportID, producerID string, caps *media.RTPCapabilities) (ConsumeResult, error) {
	_, roomID, ok := c.Registry.ParticipantByConnection(connID)
	if !ok {
		return ConsumeResult{}, domain.ErrNotJoined
	}
	if caps == nil {
		stored, err := c.Registry.ReceiveCapabilities(connID)
		if err != nil {
			return ConsumeResult{}, err
		}
		if stored == nil {
			return ConsumeResult{}, domain.Validation("receive capabilities not declared")
		}
		caps = stored
	}
	t, err := c.Registry.Transport(connID, transportID)
	if err != nil {
		return ConsumeResult{}, err
	}
	prod, err := c.Registry.ProducerInRoom(roomID, producerID)
	if err != nil {
		return ConsumeResult{}, err
	}
	if !c.Gateway.CanConsume(prod, *caps) {
		return ConsumeResult{}, fmt.Errorf("%w: receive capabilities incompatible with producer %q (%s)",
			domain.ErrValidation, producerID, prod.Codec().MimeType)
	}
	cons, err := c.Gateway.Consume(ctx, t, prod, *caps)
	if err != nil {
		return ConsumeResult{}, err
	}
	if err := c.Registry.AttachConsumer(connID, cons); err != nil {
		_ = cons.Close()
		return ConsumeResult{}, err
	}
	return ConsumeResult{
		ConsumerID:     cons.ID(),
		Kind:           cons.Kind(),
		Codec:          cons.Codec(),
		ProducerPaused: prod.Paused(),
	}, nil
}

func (c *Controller) ResumeConsumer(ctx context.Context, connID, consumerID string) error {
	cons, err := c.Registry.Consumer(connID, consumerID)
	if err != nil {
		return err
	}
	return c.Gateway.Resume(ctx, cons)
}

func (c *Controller) GetProducers(connID string) ([]session.ProducerInfo, error) {
	p, roomID, ok := c.Registry.ParticipantByConnection(connID)
	if !ok {
		return nil, domain.ErrNotJoined
	}
	return c.Registry.ListProducers(roomID, p.ID), nil
}

func (c *Controller) SetReceiveCapabilities(connID string, caps media.RTPCapabilities) error {
	if len(caps.Codecs) == 0 {
		return domain.Validation("empty receive capabilities")
	}
	return c.Registry.SetReceiveCapabilities(connID, caps)
}
