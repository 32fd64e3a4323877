package rtc

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/media"
)

// Producer is one outbound media source. Until the remote track arrives
// it reports paused; once bound, its loop reads RTP from the source and
// forwards to every live out-track.
type Producer struct {
	id    string
	kind  media.Kind
	codec media.CodecParameters
	meta  map[string]any

	mu     sync.RWMutex
	outs   map[string]*outTrack
	src    *webrtc.TrackRemote
	cancel context.CancelFunc
	closed bool
}

func newProducer(kind media.Kind, codec media.CodecParameters, meta map[string]any) *Producer {
	return &Producer{
		id:    uuid.NewString(),
		kind:  kind,
		codec: codec,
		meta:  meta,
		outs:  make(map[string]*outTrack),
	}
}

func (p *Producer) ID() string                   { return p.id }
func (p *Producer) Kind() media.Kind             { return p.kind }
func (p *Producer) Codec() media.CodecParameters { return p.codec }

// Paused reports true until the remote track has arrived.
func (p *Producer) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.src == nil
}

func (p *Producer) bind(track *webrtc.TrackRemote) {
	p.mu.Lock()
	if p.closed || p.src != nil {
		p.mu.Unlock()
		return
	}
	p.src = track
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	logger := log.With().Str("module", "media.rtc").Str("producer", p.id).Logger()
	go p.loop(ctx, track, &logger)
}

func (p *Producer) loop(ctx context.Context, src *webrtc.TrackRemote, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("producer ctx done, marking all out tracks for delete")
			p.markAllDelete()
			return
		default:
		}
		pkt, _, err := src.ReadRTP()
		if err != nil {
			logger.Info().Err(err).Msg("producer read RTP ended")
			p.markAllDelete()
			return
		}
		p.forward(pkt, logger)
	}
}

func (p *Producer) forward(pkt *rtp.Packet, logger *zerolog.Logger) {
	p.mu.RLock()
	snapshot := make(map[string]*outTrack, len(p.outs))
	maps.Copy(snapshot, p.outs)
	p.mu.RUnlock()

	dirty := make([]string, 0, len(snapshot))
	for id, ot := range snapshot {
		switch ot.state() {
		case trackStateDelete:
			dirty = append(dirty, id)
		case trackStatePaused:
		case trackStateLive:
			if err := ot.track.WriteRTP(pkt); err != nil {
				logger.Warn().Err(err).Str("consumer", id).Msg("write RTP failed, dropping out track")
				ot.markDelete()
				dirty = append(dirty, id)
			}
		}
	}

	// Cleanup happens outside the read lock.
	if len(dirty) > 0 {
		p.mu.Lock()
		for _, id := range dirty {
			delete(p.outs, id)
		}
		p.mu.Unlock()
	}
}

func (p *Producer) addOut(id string, ot *outTrack) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outs[id] = ot
}

func (p *Producer) removeOut(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ot, ok := p.outs[id]; ok {
		ot.markDelete()
		delete(p.outs, id)
	}
}

func (p *Producer) markAllDelete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ot := range p.outs {
		ot.markDelete()
	}
}

func (p *Producer) Close() error {
	p.mu.Lock()
	p.closed = true
	cancel := p.cancel
	for _, ot := range p.outs {
		ot.markDelete()
	}
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
