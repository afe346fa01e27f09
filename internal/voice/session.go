package voice

import (
	"context"
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a guild's voice session.
type Status int32

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusClosing
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Conn is the platform voice connection a session wraps. Implemented by
// the discordgo adapter in production and by fakes in tests.
type Conn interface {
	Speaking(bool) error
	Disconnect() error

	// OpusSend is the channel Opus frames are transmitted on. It is
	// owned by the connection and stays valid until Disconnect.
	OpusSend() chan<- []byte
}

// Session is one guild's live voice connection plus its persistent output
// stream. Owned exclusively by the Manager; all mutation goes through it.
type Session struct {
	GuildID   string
	ChannelID string

	conn   Conn
	out    *OutputStream
	status atomic.Int32

	// lastActivity is unix nanos of the most recent playback write.
	lastActivity atomic.Int64
}

// Output returns the session's persistent output stream. The handle is
// allocated once when the session connects and is the only handle ever
// written to for the session's lifetime — recreating it per play produces
// truncated or silent audio.
func (s *Session) Output() *OutputStream {
	return s.out
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() Status {
	return Status(s.status.Load())
}

func (s *Session) setStatus(st Status) {
	s.status.Store(int32(st))
}

// Touch records playback activity for idle tracking.
func (s *Session) Touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the time of the most recent playback write.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// OutputStream is the single writer-facing handle onto a session's voice
// transmission channel. The Playing/Idle state machine in the playback
// engine guarantees at most one writer at a time.
type OutputStream struct {
	send         chan<- []byte
	stallTimeout time.Duration
}

func newOutputStream(send chan<- []byte, stallTimeout time.Duration) *OutputStream {
	return &OutputStream{send: send, stallTimeout: stallTimeout}
}

// WriteFrame transmits one Opus frame. A write that stalls past the
// configured bound returns ErrStreamWrite; a cancelled context returns
// ctx.Err(). Cancellation is cooperative at frame boundaries.
func (o *OutputStream) WriteFrame(ctx context.Context, frame []byte) error {
	timer := time.NewTimer(o.stallTimeout)
	defer timer.Stop()

	select {
	case o.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrStreamWrite
	}
}
