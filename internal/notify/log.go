package notify

import "log/slog"

// LogNotifier writes every event to the structured log. Useful on its own
// in development and as a fallback transport in production.
type LogNotifier struct{}

var _ Notifier = (*LogNotifier)(nil)

func (LogNotifier) PlaybackStarted(guildID, name string) {
	slog.Info("playback started", "guildID", guildID, "name", name)
}

func (LogNotifier) PlaybackProgress(guildID string, positionMs, durationMs int64) {
	slog.Debug("playback progress", "guildID", guildID, "positionMs", positionMs, "durationMs", durationMs)
}

func (LogNotifier) PlaybackFinished(guildID string) {
	slog.Info("playback finished", "guildID", guildID)
}

func (LogNotifier) QueueUpdated(guildID string, queue []QueueItem) {
	slog.Info("queue updated", "guildID", guildID, "pending", len(queue))
}

func (LogNotifier) AudioConnected(guildID, channelID string) {
	slog.Info("audio connected", "guildID", guildID, "channelID", channelID)
}

func (LogNotifier) AudioDisconnected(guildID, channelID string) {
	slog.Info("audio disconnected", "guildID", guildID, "channelID", channelID)
}
