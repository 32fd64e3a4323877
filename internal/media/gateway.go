package media

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Gateway translates registry-level intents into engine calls. It does
// no retries: an engine failure is wrapped and propagated.
type Gateway struct {
	engine Engine
}

func NewGateway(engine Engine) *Gateway {
	return &Gateway{engine: engine}
}

func (g *Gateway) Capabilities() RTPCapabilities {
	return g.engine.Capabilities()
}

func (g *Gateway) CreateTransport(ctx context.Context) (Transport, json.RawMessage, error) {
	t, params, err := g.engine.CreateTransport(ctx)
	if err != nil {
		return nil, nil, &EngineError{Op: "createTransport", Err: err}
	}
	return t, params, nil
}

func (g *Gateway) ConnectTransport(ctx context.Context, t Transport, remote json.RawMessage) error {
	if err := g.engine.ConnectTransport(ctx, t, remote); err != nil {
		return &EngineError{Op: "connectTransport", Err: err}
	}
	return nil
}

func (g *Gateway) Produce(ctx context.Context, t Transport, kind Kind, codec CodecParameters, metadata map[string]any) (Producer, error) {
	p, err := g.engine.Produce(ctx, t, kind, codec, metadata)
	if err != nil {
		return nil, &EngineError{Op: "produce", Err: err}
	}
	return p, nil
}

func (g *Gateway) CanConsume(p Producer, caps RTPCapabilities) bool {
	return g.engine.CanConsume(p, caps)
}

func (g *Gateway) Consume(ctx context.Context, t Transport, p Producer, caps RTPCapabilities) (Consumer, error) {
	c, err := g.engine.Consume(ctx, t, p, caps)
	if err != nil {
		return nil, &EngineError{Op: "consume", Err: err}
	}
	return c, nil
}

func (g *Gateway) Resume(ctx context.Context, c Consumer) error {
	if err := g.engine.Resume(ctx, c); err != nil {
		return &EngineError{Op: "resumeConsumer", Err: err}
	}
	return nil
}

// Release closes every handle a removed participant owned: consumers
// first, then producers, then transports. Individual close failures are
// logged and swallowed so one bad handle never blocks the rest. Called
// exactly once per participant removal.
func (g *Gateway) Release(owner string, consumers []Consumer, producers []Producer, transports []Transport) {
	logger := log.With().Str("module", "media.gateway").Str("owner", owner).Logger()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Str("consumer", c.ID()).Msg("consumer close failed")
		}
	}
	for _, p := range producers {
		if err := p.Close(); err != nil {
			logger.Warn().Err(err).Str("producer", p.ID()).Msg("producer close failed")
		}
	}
	for _, t := range transports {
		if err := t.Close(); err != nil {
			logger.Warn().Err(err).Str("transport", t.ID()).Msg("transport close failed")
		}
	}
	logger.Info().
		Int("consumers", len(consumers)).
		Int("producers", len(producers)).
		Int("transports", len(transports)).
		Msg("released participant resources")
}
