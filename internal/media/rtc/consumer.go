package rtc

import (
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/krishnabarasiya03/video-conf/internal/media"
)

// Consumer is a paused receiver of one producer, attached to the
// subscriber's transport. Resume flips its out-track live.
type Consumer struct {
	id        string
	producer  *Producer
	transport *Transport
	out       *outTrack
	sender    *webrtc.RTPSender
}

func newConsumer(t *Transport, p *Producer) (*Consumer, error) {
	local, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{
		MimeType:  p.codec.MimeType,
		ClockRate: p.codec.ClockRate,
		Channels:  p.codec.Channels,
	}, uuid.NewString(), p.id)
	if err != nil {
		return nil, err
	}
	sender, err := t.pc.AddTrack(local)
	if err != nil {
		return nil, err
	}
	c := &Consumer{
		id:        uuid.NewString(),
		producer:  p,
		transport: t,
		out:       newOutTrack(local),
		sender:    sender,
	}
	p.addOut(c.id, c.out)
	return c, nil
}

func (c *Consumer) ID() string                   { return c.id }
func (c *Consumer) Kind() media.Kind             { return c.producer.kind }
func (c *Consumer) Codec() media.CodecParameters { return c.producer.codec }

func (c *Consumer) Close() error {
	c.producer.removeOut(c.id)
	return c.transport.pc.RemoveTrack(c.sender)
}
