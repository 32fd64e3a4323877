// Package media defines the narrow capability seam towards the media
// engine and the gateway that drives it. Nothing in here knows about
// rooms; room semantics live in the lifecycle controller.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

func (k Kind) Valid() bool {
	return k == KindAudio || k == KindVideo
}

// CodecCapability describes one codec an endpoint can receive.
type CodecCapability struct {
	MimeType  string `json:"mimeType"`
	ClockRate uint32 `json:"clockRate"`
	Channels  uint16 `json:"channels,omitempty"`
}

// RTPCapabilities is the capability descriptor exchanged with clients.
// The engine's own descriptor is shared read-only across all rooms.
type RTPCapabilities struct {
	Codecs []CodecCapability `json:"codecs"`
}

// Supports reports whether caps can receive the given codec parameters.
func (caps RTPCapabilities) Supports(codec CodecParameters) bool {
	for _, c := range caps.Codecs {
		if strings.EqualFold(c.MimeType, codec.MimeType) && c.ClockRate == codec.ClockRate {
			return true
		}
	}
	return false
}

// CodecParameters carries the negotiated parameters of one track.
type CodecParameters struct {
	MimeType    string `json:"mimeType"`
	PayloadType uint8  `json:"payloadType,omitempty"`
	ClockRate   uint32 `json:"clockRate"`
	Channels    uint16 `json:"channels,omitempty"`
}

// Transport is a live bidirectional transport handle. Handles are owned
// by exactly one participant and closed in cascade on removal.
type Transport interface {
	ID() string
	Close() error
}

// Producer is a live outbound media source registered on a transport.
type Producer interface {
	ID() string
	Kind() Kind
	Codec() CodecParameters
	Paused() bool
	Close() error
}

// Consumer is a live receiver of a remote producer. Created paused;
// the caller must explicitly resume.
type Consumer interface {
	ID() string
	Kind() Kind
	Codec() CodecParameters
	Close() error
}

// Engine is the capability interface of the media engine. Parameters
// exchanged with clients are opaque blobs; only the engine and the
// client interpret them.
type Engine interface {
	// Capabilities returns the shared receive-capability descriptor.
	// One engine, one router: identical for every room.
	Capabilities() RTPCapabilities
	CreateTransport(ctx context.Context) (Transport, json.RawMessage, error)
	// ConnectTransport completes the transport handshake. Calling it
	// twice on the same transport is a caller error.
	ConnectTransport(ctx context.Context, t Transport, remote json.RawMessage) error
	Produce(ctx context.Context, t Transport, kind Kind, codec CodecParameters, metadata map[string]any) (Producer, error)
	CanConsume(p Producer, caps RTPCapabilities) bool
	Consume(ctx context.Context, t Transport, p Producer, caps RTPCapabilities) (Consumer, error)
	Resume(ctx context.Context, c Consumer) error
}

// EngineError wraps a failed engine call. Surfaced to callers as a
// generic failure; detail stays in the server logs.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("media engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
