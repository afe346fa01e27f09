package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const eventStream = "playback_events"

// RedisNotifier publishes playback events to a Redis stream for whatever
// real-time consumers the surrounding system runs (dashboards, web portal).
// Events are forwarded by a single background goroutine so emitters never
// block; if the buffer fills, events are dropped and counted in the log.
type RedisNotifier struct {
	client *redis.Client
	events chan map[string]any
}

var _ Notifier = (*RedisNotifier)(nil)

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	n := &RedisNotifier{
		client: client,
		events: make(chan map[string]any, 256),
	}
	go n.forward()
	return n
}

// Close stops the forwarding goroutine. Pending buffered events are dropped.
func (n *RedisNotifier) Close() {
	close(n.events)
}

func (n *RedisNotifier) forward() {
	for values := range n.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := n.client.XAdd(ctx, &redis.XAddArgs{
			Stream: eventStream,
			Values: values,
		}).Err()
		cancel()
		if err != nil {
			slog.Warn("failed to publish playback event", "event", values["event"], "error", err)
		}
	}
}

func (n *RedisNotifier) publish(event string, values map[string]any) {
	values["event"] = event
	values["at"] = time.Now().UTC().Format(time.RFC3339Nano)
	select {
	case n.events <- values:
	default:
		slog.Warn("playback event buffer full, dropping event", "event", event)
	}
}

func (n *RedisNotifier) PlaybackStarted(guildID, name string) {
	n.publish("playback_started", map[string]any{"guildID": guildID, "name": name})
}

func (n *RedisNotifier) PlaybackProgress(guildID string, positionMs, durationMs int64) {
	n.publish("playback_progress", map[string]any{
		"guildID":    guildID,
		"positionMs": positionMs,
		"durationMs": durationMs,
	})
}

func (n *RedisNotifier) PlaybackFinished(guildID string) {
	n.publish("playback_finished", map[string]any{"guildID": guildID})
}

func (n *RedisNotifier) QueueUpdated(guildID string, queue []QueueItem) {
	n.publish("queue_updated", map[string]any{
		"guildID": guildID,
		"pending": len(queue),
	})
}

func (n *RedisNotifier) AudioConnected(guildID, channelID string) {
	n.publish("audio_connected", map[string]any{"guildID": guildID, "channelID": channelID})
}

func (n *RedisNotifier) AudioDisconnected(guildID, channelID string) {
	n.publish("audio_disconnected", map[string]any{"guildID": guildID, "channelID": channelID})
}
