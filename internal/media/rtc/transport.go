package rtc

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/media"
)

// Transport wraps one PeerConnection. Producers registered before the
// remote track arrives wait in the pending queue of their kind and are
// bound in OnTrack.
type Transport struct {
	id string
	pc *webrtc.PeerConnection

	mu      sync.Mutex
	pending map[media.Kind][]*Producer
	closed  bool
}

func newTransport(pc *webrtc.PeerConnection) *Transport {
	return &Transport{
		id:      uuid.NewString(),
		pc:      pc,
		pending: make(map[media.Kind][]*Producer),
	}
}

func (t *Transport) ID() string { return t.id }

func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	return t.pc.Close()
}

func (t *Transport) addPending(p *Producer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[p.kind] = append(t.pending[p.kind], p)
}

func (t *Transport) onTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	kind := kindOf(track.Kind())
	t.mu.Lock()
	var p *Producer
	if q := t.pending[kind]; len(q) > 0 {
		p = q[0]
		t.pending[kind] = q[1:]
	}
	t.mu.Unlock()

	if p == nil {
		log.Warn().Str("module", "media.rtc").
			Str("transport", t.id).Str("kind", string(kind)).Str("track", track.ID()).
			Msg("remote track without a pending producer")
		return
	}
	log.Info().Str("module", "media.rtc").
		Str("transport", t.id).Str("producer", p.id).Str("kind", string(kind)).
		Msg("bound remote track to producer")
	p.bind(track)
}
