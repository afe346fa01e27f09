package announce

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cpike5/discordbot-sub005/internal/datalayer"
	"github.com/cpike5/discordbot-sub005/internal/generator"
	"github.com/cpike5/discordbot-sub005/internal/playback"
	"github.com/cpike5/discordbot-sub005/internal/transcode"
	"github.com/cpike5/discordbot-sub005/internal/voice"
)

// ChannelPicker chooses which voice channel an announcement targets.
type ChannelPicker interface {
	// BusiestVoiceChannel returns the guild's most occupied voice channel,
	// or ok=false when every channel is empty.
	BusiestVoiceChannel(guildID string) (channelID string, ok bool)
}

// PlaybackRunner joins the guild's busiest voice channel and enqueues the
// announcement's sound for playback.
type PlaybackRunner struct {
	picker   ChannelPicker
	sessions *voice.Manager
	player   *playback.Engine
	storage  datalayer.BlobStorage
	ids      generator.Generator[string]
}

func NewPlaybackRunner(
	picker ChannelPicker,
	sessions *voice.Manager,
	player *playback.Engine,
	storage datalayer.BlobStorage,
	ids generator.Generator[string],
) *PlaybackRunner {
	return &PlaybackRunner{
		picker:   picker,
		sessions: sessions,
		player:   player,
		storage:  storage,
		ids:      ids,
	}
}

var _ JobRunner = (*PlaybackRunner)(nil)

func (r *PlaybackRunner) Run(ctx context.Context, job Job) error {
	channelID, ok := r.picker.BusiestVoiceChannel(job.GuildID)
	if !ok {
		// Nobody to announce to. The run is consumed, not rescheduled.
		slog.Info("skipping announcement, no occupied voice channel",
			"guildID", job.GuildID, "sound", job.SoundName)
		return nil
	}

	if _, err := r.sessions.EnsureSession(ctx, job.GuildID, channelID); err != nil {
		return fmt.Errorf("failed to join channel for announcement: %w", err)
	}

	id, err := r.ids.Next()
	if err != nil {
		return fmt.Errorf("failed to generate request id: %w", err)
	}

	key := datalayer.SoundKey(job.GuildID, job.SoundName)
	req := playback.Request{
		ID:   id,
		Name: job.SoundName,
		Source: transcode.Source{
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return r.storage.Get(ctx, key)
			},
		},
		RequestedBy: "announcement",
		EnqueuedAt:  time.Now(),
	}
	return r.player.Enqueue(job.GuildID, req)
}
