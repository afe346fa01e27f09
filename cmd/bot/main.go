package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"github.com/cpike5/discordbot-sub005/internal/announce"
	"github.com/cpike5/discordbot-sub005/internal/autoleave"
	"github.com/cpike5/discordbot-sub005/internal/clips"
	"github.com/cpike5/discordbot-sub005/internal/config"
	"github.com/cpike5/discordbot-sub005/internal/datalayer"
	"github.com/cpike5/discordbot-sub005/internal/generator"
	"github.com/cpike5/discordbot-sub005/internal/handler"
	"github.com/cpike5/discordbot-sub005/internal/notify"
	"github.com/cpike5/discordbot-sub005/internal/playback"
	"github.com/cpike5/discordbot-sub005/internal/transcode"
	"github.com/cpike5/discordbot-sub005/internal/voice"
	"github.com/cpike5/discordbot-sub005/internal/vox"
)

const announcePollInterval = 27 * time.Second

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := datalayer.NewPostgresPoolFromEnv()
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := datalayer.MigratePostgres(pool); err != nil {
		return fmt.Errorf("failed to migrate postgres: %w", err)
	}

	discordCfg, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}
	audioCfg, err := config.NewAudioConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load audio config: %w", err)
	}
	autoLeaveCfg, err := config.NewAutoLeaveConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load autoleave config: %w", err)
	}

	minioStorage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return fmt.Errorf("failed to create minio storage: %w", err)
	}
	if err := minioStorage.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure minio bucket: %w", err)
	}

	pipeline := transcode.NewPipeline(audioCfg.FFmpegPath, audioCfg.TranscodeStartupTimeout)
	if err := pipeline.Probe(ctx); err != nil {
		return err
	}

	var clipSource clips.AssetProvider = datalayer.NewClipAssetSource(pool, minioStorage)
	if audioCfg.ClipsDir != "" {
		clipSource = &clips.DirProvider{Root: audioCfg.ClipsDir}
	}
	library, err := clips.Load(ctx, clipSource)
	if err != nil {
		return fmt.Errorf("failed to load clip library: %w", err)
	}
	slog.Info("clip library loaded", "groups", library.Groups())

	notifiers := notify.MultiNotifier{notify.LogNotifier{}}
	if redisCfg, err := config.NewRedisConfigFromEnv(); err == nil {
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		redisNotifier := notify.NewRedisNotifier(client)
		defer redisNotifier.Close()
		notifiers = append(notifiers, redisNotifier)
	} else {
		slog.Warn("redis not configured, playback events are log-only", "error", err)
	}

	dialer := &voice.DiscordDialer{}
	sessions := voice.NewManager(dialer, notifiers, audioCfg.WriteStallTimeout)

	defaultMode, err := playback.ParseMode(audioCfg.QueueMode)
	if err != nil {
		return err
	}
	player := playback.NewEngine(
		sessions,
		playback.PipelineTranscoder{Pipeline: pipeline},
		notifiers,
		defaultMode,
		audioCfg.ProgressInterval,
	)

	announcements := announce.NewRepository(pool)

	interactionHandler := handler.NewInteractionHandler(handler.Deps{
		Voice:         sessions,
		Locator:       dialer,
		Player:        player,
		Vox:           vox.NewEngine(library),
		Announcements: announcements,
		Storage:       minioStorage,
		IDs:           &generator.UUIDV4Generator{},
		DefaultGapMs:  audioCfg.DefaultGapMs,
		VoxGroup:      audioCfg.VoxGroup,
	})

	session, err := handler.NewSession(discordCfg.Token, handler.Handlers{
		Ready: handler.Ready(discordCfg.Activity),
		InteractionCreate: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			interactionHandler(s, i)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	dialer.Session = session

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	if err := handler.EstablishCommands(session, discordCfg.GuildID); err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}

	sweeper := autoleave.NewScheduler(sessions, dialer, player, autoLeaveCfg.PollInterval, autoLeaveCfg.IdleTimeout)
	go func() {
		if err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("autoleave sweep stopped", "error", err)
		}
	}()

	runner := announce.NewPlaybackRunner(dialer, sessions, player, minioStorage, &generator.UUIDV4Generator{})
	poller := announce.NewPoller(announcements, runner, announcePollInterval)
	go func() {
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("announcement poller stopped", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	player.StopAll()
	for _, info := range sessions.Active() {
		if err := sessions.CloseSession(info.GuildID); err != nil {
			slog.Warn("failed to close voice session", "guildID", info.GuildID, "error", err)
		}
	}
	return nil
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
