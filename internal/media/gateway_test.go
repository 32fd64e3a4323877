package media_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/media/mediatest"
)

func TestReleaseClosesInOrder(t *testing.T) {
	eng := mediatest.NewEngine()
	gw := media.NewGateway(eng)
	ctx := context.Background()

	tr, _, err := gw.CreateTransport(ctx)
	require.NoError(t, err)
	prod, err := gw.Produce(ctx, tr, media.KindVideo, media.CodecParameters{MimeType: "video/VP8", ClockRate: 90000}, nil)
	require.NoError(t, err)
	cons, err := gw.Consume(ctx, tr, prod, eng.Caps)
	require.NoError(t, err)

	gw.Release("p1", []media.Consumer{cons}, []media.Producer{prod}, []media.Transport{tr})

	require.Equal(t, []string{
		"consumer:" + cons.ID(),
		"producer:" + prod.ID(),
		"transport:" + tr.ID(),
	}, eng.CloseOrder, "consumers close before producers before transports")
}

func TestReleaseSwallowsCloseFailures(t *testing.T) {
	eng := mediatest.NewEngine()
	gw := media.NewGateway(eng)
	ctx := context.Background()

	tr, _, err := gw.CreateTransport(ctx)
	require.NoError(t, err)
	prod, err := gw.Produce(ctx, tr, media.KindAudio, media.CodecParameters{MimeType: "audio/opus", ClockRate: 48000}, nil)
	require.NoError(t, err)

	prod.(*mediatest.Producer).CloseErr = errors.New("close failed")

	// Must not panic and must still close the transport after the
	// producer close fails.
	gw.Release("p1", nil, []media.Producer{prod}, []media.Transport{tr})
	require.Equal(t, 1, eng.Closes("transport"))
}

func TestEngineErrorsAreWrapped(t *testing.T) {
	eng := mediatest.NewEngine()
	eng.ErrCreateTransport = errors.New("port exhaustion")
	gw := media.NewGateway(eng)

	_, _, err := gw.CreateTransport(context.Background())
	var engErr *media.EngineError
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, "createTransport", engErr.Op)
}

func TestCapabilitySupport(t *testing.T) {
	caps := media.RTPCapabilities{Codecs: []media.CodecCapability{
		{MimeType: "audio/opus", ClockRate: 48000, Channels: 2},
	}}
	require.True(t, caps.Supports(media.CodecParameters{MimeType: "AUDIO/OPUS", ClockRate: 48000}))
	require.False(t, caps.Supports(media.CodecParameters{MimeType: "video/VP8", ClockRate: 90000}))
	require.False(t, caps.Supports(media.CodecParameters{MimeType: "audio/opus", ClockRate: 8000}))
}
