package rtc

import (
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

type trackState int32

const (
	trackStatePaused trackState = iota // consumers start paused
	trackStateLive
	trackStateDelete
)

// outTrack is a single outgoing track to one consumer.
type outTrack struct {
	track *webrtc.TrackLocalStaticRTP
	st    atomic.Int32 // zero value is trackStatePaused
}

func newOutTrack(track *webrtc.TrackLocalStaticRTP) *outTrack {
	return &outTrack{track: track}
}

func (ot *outTrack) state() trackState {
	return trackState(ot.st.Load())
}

func (ot *outTrack) markLive() {
	ot.st.Store(int32(trackStateLive))
}

func (ot *outTrack) markDelete() {
	ot.st.Store(int32(trackStateDelete))
}
