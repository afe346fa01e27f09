package notify

// MultiNotifier fans each event out to every wrapped notifier, in order.
type MultiNotifier []Notifier

var _ Notifier = (MultiNotifier)(nil)

func (m MultiNotifier) PlaybackStarted(guildID, name string) {
	for _, n := range m {
		n.PlaybackStarted(guildID, name)
	}
}

func (m MultiNotifier) PlaybackProgress(guildID string, positionMs, durationMs int64) {
	for _, n := range m {
		n.PlaybackProgress(guildID, positionMs, durationMs)
	}
}

func (m MultiNotifier) PlaybackFinished(guildID string) {
	for _, n := range m {
		n.PlaybackFinished(guildID)
	}
}

func (m MultiNotifier) QueueUpdated(guildID string, queue []QueueItem) {
	for _, n := range m {
		n.QueueUpdated(guildID, queue)
	}
}

func (m MultiNotifier) AudioConnected(guildID, channelID string) {
	for _, n := range m {
		n.AudioConnected(guildID, channelID)
	}
}

func (m MultiNotifier) AudioDisconnected(guildID, channelID string) {
	for _, n := range m {
		n.AudioDisconnected(guildID, channelID)
	}
}
