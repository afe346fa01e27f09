package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// AudioConfig controls the transcoding pipeline and playback engine.
type AudioConfig struct {
	FFmpegPath string `env:"AUDIO_FFMPEG_PATH, default=ffmpeg"`

	// TranscodeStartupTimeout is how long to wait for the first audio
	// frame out of the transcoder before killing it.
	TranscodeStartupTimeout time.Duration `env:"AUDIO_TRANSCODE_STARTUP_TIMEOUT, default=5s"`

	// WriteStallTimeout bounds a single voice-stream frame write. A write
	// that stalls longer is treated as a lost connection.
	WriteStallTimeout time.Duration `env:"AUDIO_WRITE_STALL_TIMEOUT, default=10s"`

	// ProgressInterval is the minimum time between playback progress events.
	ProgressInterval time.Duration `env:"AUDIO_PROGRESS_INTERVAL, default=1s"`

	// DefaultGapMs is the silence inserted between concatenated clips
	// when the caller does not specify a gap.
	DefaultGapMs int `env:"AUDIO_DEFAULT_GAP_MS, default=60"`

	// QueueMode is the default per-guild queueing behavior: "queue" or "replace".
	QueueMode string `env:"AUDIO_QUEUE_MODE, default=queue"`

	// VoxGroup is the clip group used when a vox command does not name one.
	VoxGroup string `env:"AUDIO_VOX_GROUP, default=hev"`

	// ClipsDir, when set, loads vox clips from a local directory tree
	// instead of object storage.
	ClipsDir string `env:"AUDIO_CLIPS_DIR"`
}

func NewAudioConfigFromEnv() (*AudioConfig, error) {
	var cfg AudioConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.QueueMode != "queue" && cfg.QueueMode != "replace" {
		return nil, fmt.Errorf("AUDIO_QUEUE_MODE must be 'queue' or 'replace', got %q", cfg.QueueMode)
	}
	return &cfg, nil
}
