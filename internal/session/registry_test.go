package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
)

type nopSignal struct{}

func (nopSignal) TrySend([]byte) error { return nil }
func (nopSignal) Close()               {}

type stubProducer struct {
	id   string
	kind media.Kind
}

func (p stubProducer) ID() string                   { return p.id }
func (p stubProducer) Kind() media.Kind             { return p.kind }
func (p stubProducer) Codec() media.CodecParameters { return media.CodecParameters{} }
func (p stubProducer) Paused() bool                 { return false }
func (p stubProducer) Close() error                 { return nil }

type stubTransport struct{ id string }

func (t stubTransport) ID() string   { return t.id }
func (t stubTransport) Close() error { return nil }

func teacherIdentity() domain.Identity {
	return domain.Identity{ID: "t1", DisplayName: "Alice", Role: domain.RoleTeacher}
}

func studentIdentity() domain.Identity {
	return domain.Identity{ID: "s1", DisplayName: "Bob", Role: domain.RoleStudent}
}

func TestRoomLifecycle(t *testing.T) {
	reg := NewRegistry()

	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})
	_, ok := reg.GetRoom("r1")
	require.True(t, ok, "room must exist after first join")

	p, roomID, ok := reg.RemoveParticipantByConnection("conn-1")
	require.True(t, ok)
	require.Equal(t, "r1", roomID)
	require.Equal(t, "t1", p.ID)

	_, ok = reg.GetRoom("r1")
	require.False(t, ok, "room must be deleted when its last participant leaves")
}

func TestRoomSurvivesWhileOccupied(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})
	reg.AddParticipant("r1", studentIdentity(), "conn-2", nopSignal{})

	_, _, ok := reg.RemoveParticipantByConnection("conn-2")
	require.True(t, ok)
	_, ok = reg.GetRoom("r1")
	require.True(t, ok, "room must survive while participants remain")
	require.Len(t, reg.ListParticipants("r1"), 1)
}

func TestRemoveUnknownConnectionIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})

	_, _, ok := reg.RemoveParticipantByConnection("conn-1")
	require.True(t, ok)
	_, _, ok = reg.RemoveParticipantByConnection("conn-1")
	require.False(t, ok, "second removal must find nothing")
}

func TestConnectionIndexResolution(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})
	reg.AddParticipant("r2", studentIdentity(), "conn-2", nopSignal{})

	p, roomID, ok := reg.ParticipantByConnection("conn-2")
	require.True(t, ok)
	require.Equal(t, "r2", roomID)
	require.Equal(t, "s1", p.ID)

	_, _, ok = reg.ParticipantByConnection("conn-3")
	require.False(t, ok)
}

func TestSameIdentityReplacementInvalidatesOldConnection(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-old", nopSignal{})
	reg.AddParticipant("r1", teacherIdentity(), "conn-new", nopSignal{})

	require.Len(t, reg.ListParticipants("r1"), 1, "same identity holds one entry per room")

	_, _, ok := reg.ParticipantByConnection("conn-old")
	require.False(t, ok, "replaced connection must no longer resolve")
	_, _, ok = reg.RemoveParticipantByConnection("conn-old")
	require.False(t, ok)

	p, _, ok := reg.ParticipantByConnection("conn-new")
	require.True(t, ok)
	require.Equal(t, "conn-new", p.ConnectionID)
}

func TestSameIdentityAcrossRooms(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})
	reg.AddParticipant("r2", teacherIdentity(), "conn-2", nopSignal{})

	require.Len(t, reg.ListParticipants("r1"), 1)
	require.Len(t, reg.ListParticipants("r2"), 1)

	_, _, ok := reg.RemoveParticipantByConnection("conn-1")
	require.True(t, ok)
	_, ok = reg.GetRoom("r2")
	require.True(t, ok, "removal in one room must not touch the other")
}

func TestListProducersExcludesOwner(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})
	reg.AddParticipant("r1", studentIdentity(), "conn-2", nopSignal{})

	require.NoError(t, reg.AttachProducer("conn-1", stubProducer{id: "p-video", kind: media.KindVideo}))
	require.NoError(t, reg.AttachProducer("conn-1", stubProducer{id: "p-audio", kind: media.KindAudio}))
	require.NoError(t, reg.AttachProducer("conn-2", stubProducer{id: "p-student", kind: media.KindAudio}))

	fromStudent := reg.ListProducers("r1", "s1")
	require.Len(t, fromStudent, 2)
	for _, info := range fromStudent {
		require.Equal(t, "t1", info.OwnerID)
		require.Equal(t, "Alice", info.OwnerName)
		require.Equal(t, domain.RoleTeacher, info.OwnerRole)
	}

	fromTeacher := reg.ListProducers("r1", "t1")
	require.Len(t, fromTeacher, 1)
	require.Equal(t, "p-student", fromTeacher[0].ProducerID)
}

func TestResourceOpsRequireJoinedConnection(t *testing.T) {
	reg := NewRegistry()

	err := reg.AttachTransport("ghost", stubTransport{id: "t"})
	require.ErrorIs(t, err, domain.ErrNotJoined)
	err = reg.AttachProducer("ghost", stubProducer{id: "p"})
	require.ErrorIs(t, err, domain.ErrNotJoined)
	_, err = reg.ReceiveCapabilities("ghost")
	require.ErrorIs(t, err, domain.ErrNotJoined)
}

func TestTransportLookup(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})

	require.NoError(t, reg.AttachTransport("conn-1", stubTransport{id: "tr-1"}))

	tr, err := reg.Transport("conn-1", "tr-1")
	require.NoError(t, err)
	require.Equal(t, "tr-1", tr.ID())

	_, err = reg.Transport("conn-1", "tr-2")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProducerInRoomSearchesAllParticipants(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})
	reg.AddParticipant("r1", studentIdentity(), "conn-2", nopSignal{})
	require.NoError(t, reg.AttachProducer("conn-1", stubProducer{id: "p-1", kind: media.KindVideo}))

	prod, err := reg.ProducerInRoom("r1", "p-1")
	require.NoError(t, err)
	require.Equal(t, "p-1", prod.ID())

	_, err = reg.ProducerInRoom("r1", "p-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = reg.ProducerInRoom("r-missing", "p-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReceiveCapabilitiesRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", teacherIdentity(), "conn-1", nopSignal{})

	caps, err := reg.ReceiveCapabilities("conn-1")
	require.NoError(t, err)
	require.Nil(t, caps, "capabilities are nil until declared")

	declared := media.RTPCapabilities{Codecs: []media.CodecCapability{{MimeType: "audio/opus", ClockRate: 48000}}}
	require.NoError(t, reg.SetReceiveCapabilities("conn-1", declared))

	caps, err = reg.ReceiveCapabilities("conn-1")
	require.NoError(t, err)
	require.Equal(t, declared, *caps)
}
