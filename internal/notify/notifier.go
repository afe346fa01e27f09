// Package notify is the status/event sink for the playback core. The engine
// emits enumerated lifecycle events through the narrow Notifier interface,
// keeping playback logic decoupled from whatever transport the surrounding
// system uses to surface them.
package notify

import "time"

// QueueItem is a read-only snapshot of one pending playback request.
type QueueItem struct {
	ID          string
	Name        string
	RequestedBy string
	EnqueuedAt  time.Time
}

// Notifier receives playback lifecycle events. Implementations must not
// block: events are fire-and-forget and are emitted from playback state
// transitions in order.
type Notifier interface {
	PlaybackStarted(guildID, name string)
	PlaybackProgress(guildID string, positionMs, durationMs int64)
	PlaybackFinished(guildID string)
	QueueUpdated(guildID string, queue []QueueItem)
	AudioConnected(guildID, channelID string)
	AudioDisconnected(guildID, channelID string)
}

// Discard is a Notifier that drops every event.
var Discard Notifier = discard{}

type discard struct{}

func (discard) PlaybackStarted(string, string)        {}
func (discard) PlaybackProgress(string, int64, int64) {}
func (discard) PlaybackFinished(string)               {}
func (discard) QueueUpdated(string, []QueueItem)      {}
func (discard) AudioConnected(string, string)         {}
func (discard) AudioDisconnected(string, string)      {}
