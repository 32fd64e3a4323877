// Package mediatest provides a scriptable in-memory engine for tests.
package mediatest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/krishnabarasiya03/video-conf/internal/media"
)

// Engine implements media.Engine without any real media stack. Handle
// closes are recorded in order so tests can assert cascade semantics.
type Engine struct {
	mu      sync.Mutex
	counter int

	Caps               media.RTPCapabilities
	ErrCreateTransport error
	ErrProduce         error
	ErrConsume         error

	CloseOrder []string
}

func NewEngine() *Engine {
	return &Engine{
		Caps: media.RTPCapabilities{
			Codecs: []media.CodecCapability{
				{MimeType: "audio/opus", ClockRate: 48000, Channels: 2},
				{MimeType: "video/VP8", ClockRate: 90000},
			},
		},
	}
}

func (e *Engine) nextID(prefix string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counter++
	return fmt.Sprintf("%s-%d", prefix, e.counter)
}

func (e *Engine) recordClose(kind, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CloseOrder = append(e.CloseOrder, kind+":"+id)
}

// Closes returns how many handles of the given kind were closed.
func (e *Engine) Closes(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.CloseOrder {
		if strings.HasPrefix(c, kind+":") {
			n++
		}
	}
	return n
}

func (e *Engine) Capabilities() media.RTPCapabilities { return e.Caps }

func (e *Engine) CreateTransport(context.Context) (media.Transport, json.RawMessage, error) {
	if e.ErrCreateTransport != nil {
		return nil, nil, e.ErrCreateTransport
	}
	t := &Transport{id: e.nextID("transport"), eng: e}
	params, _ := json.Marshal(map[string]string{"transportId": t.id})
	return t, params, nil
}

func (e *Engine) ConnectTransport(_ context.Context, mt media.Transport, _ json.RawMessage) error {
	t := mt.(*Transport)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Connected {
		return errors.New("transport already connected")
	}
	t.Connected = true
	return nil
}

func (e *Engine) Produce(_ context.Context, _ media.Transport, kind media.Kind, codec media.CodecParameters, _ map[string]any) (media.Producer, error) {
	if e.ErrProduce != nil {
		return nil, e.ErrProduce
	}
	return &Producer{id: e.nextID("producer"), kind: kind, codec: codec, eng: e}, nil
}

func (e *Engine) CanConsume(p media.Producer, caps media.RTPCapabilities) bool {
	return caps.Supports(p.Codec())
}

func (e *Engine) Consume(_ context.Context, _ media.Transport, mp media.Producer, caps media.RTPCapabilities) (media.Consumer, error) {
	if e.ErrConsume != nil {
		return nil, e.ErrConsume
	}
	if !e.CanConsume(mp, caps) {
		return nil, errors.New("incompatible capabilities")
	}
	return &Consumer{id: e.nextID("consumer"), kind: mp.Kind(), codec: mp.Codec(), eng: e}, nil
}

func (e *Engine) Resume(_ context.Context, mc media.Consumer) error {
	mc.(*Consumer).Resumed = true
	return nil
}

type Transport struct {
	id  string
	eng *Engine

	mu        sync.Mutex
	Connected bool
	Closed    bool
	CloseErr  error
}

func (t *Transport) ID() string { return t.id }

func (t *Transport) Close() error {
	t.mu.Lock()
	t.Closed = true
	t.mu.Unlock()
	t.eng.recordClose("transport", t.id)
	return t.CloseErr
}

type Producer struct {
	id    string
	kind  media.Kind
	codec media.CodecParameters
	eng   *Engine

	Closed   bool
	CloseErr error
	IsPaused bool
}

func (p *Producer) ID() string                   { return p.id }
func (p *Producer) Kind() media.Kind             { return p.kind }
func (p *Producer) Codec() media.CodecParameters { return p.codec }
func (p *Producer) Paused() bool                 { return p.IsPaused }

func (p *Producer) Close() error {
	p.Closed = true
	p.eng.recordClose("producer", p.id)
	return p.CloseErr
}

type Consumer struct {
	id    string
	kind  media.Kind
	codec media.CodecParameters
	eng   *Engine

	Closed   bool
	CloseErr error
	Resumed  bool
}

func (c *Consumer) ID() string                   { return c.id }
func (c *Consumer) Kind() media.Kind             { return c.kind }
func (c *Consumer) Codec() media.CodecParameters { return c.codec }

func (c *Consumer) Close() error {
	c.Closed = true
	c.eng.recordClose("consumer", c.id)
	return c.CloseErr
}
