package voice

import (
	"errors"
	"fmt"
)

// ErrNotConnected indicates an operation that requires an active session
// for a guild that has none.
var ErrNotConnected = errors.New("no active voice session for guild")

// ErrStreamWrite indicates a voice-stream frame write stalled past the
// configured bound. This is treated as a lost connection: the session is
// torn down rather than retried.
var ErrStreamWrite = errors.New("voice stream write stalled")

// ConnectionError indicates the underlying voice connection could not be
// established. No partial session is registered when this is returned.
type ConnectionError struct {
	GuildID   string
	ChannelID string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to join voice channel %s in guild %s: %v", e.ChannelID, e.GuildID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

var _ error = (*ConnectionError)(nil)
