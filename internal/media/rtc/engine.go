// Package rtc is the pion-backed media engine. Transports are
// PeerConnections; producers relay RTP from remote tracks to the
// out-tracks of their consumers.
package rtc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/krishnabarasiya03/video-conf/internal/media"
)

type Engine struct {
	cfg     webrtc.Configuration
	caps    media.RTPCapabilities
	iceURLs []string
}

func NewEngine(stunURLs []string) *Engine {
	if len(stunURLs) == 0 {
		stunURLs = []string{"stun:stun.l.google.com:19302"}
	}
	return &Engine{
		cfg: webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{{URLs: stunURLs}},
		},
		caps: media.RTPCapabilities{
			Codecs: []media.CodecCapability{
				{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
				{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
			},
		},
		iceURLs: stunURLs,
	}
}

// Capabilities is the shared receive-capability descriptor: one engine,
// one router, identical for every room. Never mutated per room.
func (e *Engine) Capabilities() media.RTPCapabilities { return e.caps }

// transportParams is the opaque blob returned to the client: our offer
// plus the ICE servers to use. The client answers via connectTransport.
type transportParams struct {
	Offer      *webrtc.SessionDescription `json:"offer"`
	ICEServers []string                   `json:"iceServers"`
}

type connectParams struct {
	Answer webrtc.SessionDescription `json:"answer"`
}

func (e *Engine) CreateTransport(ctx context.Context) (media.Transport, json.RawMessage, error) {
	pc, err := webrtc.NewPeerConnection(e.cfg)
	if err != nil {
		return nil, nil, err
	}
	t := newTransport(pc)

	// Pre-allocate recv transceivers so the client can attach its
	// tracks in the answer without renegotiation.
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			_ = pc.Close()
			return nil, nil, err
		}
	}
	pc.OnTrack(t.onTrack)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		_ = pc.Close()
		return nil, nil, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		_ = pc.Close()
		return nil, nil, err
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		_ = pc.Close()
		return nil, nil, ctx.Err()
	}

	params, err := json.Marshal(transportParams{
		Offer:      pc.LocalDescription(),
		ICEServers: e.iceURLs,
	})
	if err != nil {
		_ = pc.Close()
		return nil, nil, err
	}
	return t, params, nil
}

func (e *Engine) ConnectTransport(_ context.Context, mt media.Transport, remote json.RawMessage) error {
	t, err := asTransport(mt)
	if err != nil {
		return err
	}
	var p connectParams
	if err := json.Unmarshal(remote, &p); err != nil {
		return fmt.Errorf("bad remote parameters: %w", err)
	}
	if p.Answer.SDP == "" {
		return fmt.Errorf("remote parameters missing answer")
	}
	return t.pc.SetRemoteDescription(p.Answer)
}

func (e *Engine) Produce(_ context.Context, mt media.Transport, kind media.Kind, codec media.CodecParameters, metadata map[string]any) (media.Producer, error) {
	t, err := asTransport(mt)
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	p := newProducer(kind, codec, metadata)
	t.addPending(p)
	return p, nil
}

func (e *Engine) CanConsume(mp media.Producer, caps media.RTPCapabilities) bool {
	return caps.Supports(mp.Codec())
}

func (e *Engine) Consume(_ context.Context, mt media.Transport, mp media.Producer, caps media.RTPCapabilities) (media.Consumer, error) {
	t, err := asTransport(mt)
	if err != nil {
		return nil, err
	}
	p, ok := mp.(*Producer)
	if !ok {
		return nil, fmt.Errorf("foreign producer handle")
	}
	if !e.CanConsume(p, caps) {
		return nil, fmt.Errorf("capabilities cannot consume %s", p.codec.MimeType)
	}
	return newConsumer(t, p)
}

func (e *Engine) Resume(_ context.Context, mc media.Consumer) error {
	c, ok := mc.(*Consumer)
	if !ok {
		return fmt.Errorf("foreign consumer handle")
	}
	c.out.markLive()
	return nil
}

func asTransport(mt media.Transport) (*Transport, error) {
	t, ok := mt.(*Transport)
	if !ok {
		return nil, fmt.Errorf("foreign transport handle")
	}
	return t, nil
}

func kindOf(t webrtc.RTPCodecType) media.Kind {
	if t == webrtc.RTPCodecTypeVideo {
		return media.KindVideo
	}
	return media.KindAudio
}
