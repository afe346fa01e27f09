package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/cpike5/discordbot-sub005/internal/announce"
	"github.com/cpike5/discordbot-sub005/internal/datalayer"
	"github.com/cpike5/discordbot-sub005/internal/generator"
	"github.com/cpike5/discordbot-sub005/internal/playback"
	"github.com/cpike5/discordbot-sub005/internal/presenters"
	"github.com/cpike5/discordbot-sub005/internal/schedule"
	"github.com/cpike5/discordbot-sub005/internal/transcode"
	"github.com/cpike5/discordbot-sub005/internal/voice"
	"github.com/cpike5/discordbot-sub005/internal/vox"
)

// VoiceLocator finds the voice channel a user occupies. The production
// implementation is voice.DiscordDialer.
type VoiceLocator interface {
	UserVoiceChannel(guildID, userID string) (channelID string, ok bool)
}

// Deps are the collaborators the interaction handlers call into.
type Deps struct {
	Voice         *voice.Manager
	Locator       VoiceLocator
	Player        *playback.Engine
	Vox           *vox.Engine
	Announcements *announce.Repository
	Storage       datalayer.BlobStorage
	IDs           generator.Generator[string]

	DefaultGapMs int
	VoxGroup     string
}

// InteractionHandler routes slash commands and component interactions.
type InteractionHandler struct {
	deps  Deps
	flows *FlowManager
}

// NewInteractionHandler returns the interaction dispatch function to
// register on the Discord session.
func NewInteractionHandler(deps Deps) func(DiscordSession, *discordgo.InteractionCreate) {
	if deps.IDs == nil {
		deps.IDs = &generator.UUIDV4Generator{}
	}

	h := &InteractionHandler{
		deps:  deps,
		flows: NewFlowManager(deps.IDs),
	}
	if deps.Storage != nil {
		h.flows.RegisterFlow(newSoundPickerFlow(h))
	}

	return func(s DiscordSession, i *discordgo.InteractionCreate) {
		if err := h.route(s, i); err != nil {
			h.respondError(s, i, err)
		}
	}
}

func (h *InteractionHandler) route(s DiscordSession, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return h.flows.Router(s, i)
	}

	command := i.ApplicationCommandData()
	switch command.Name {
	case "ping":
		return respondText(s, i, "Pong!")
	case "join":
		return h.handleJoin(s, i)
	case "leave":
		return h.handleLeave(s, i)
	case "play":
		return h.handlePlay(s, i, command.Options)
	case "sounds":
		return h.flows.Router(s, i)
	case "vox":
		return h.handleVox(s, i, command.Options)
	case "stop":
		if err := h.deps.Player.Stop(i.GuildID); err != nil {
			return err
		}
		return respondText(s, i, "Stopped")
	case "queue":
		resp := presenters.BuildQueueResponse(h.deps.Player.Status(i.GuildID))
		return s.InteractionRespond(i.Interaction, resp)
	case "playmode":
		return h.handlePlayMode(s, i, command.Options)
	case "announce":
		return h.handleAnnounce(s, i, command.Options)
	default:
		return nil
	}
}

func (h *InteractionHandler) handleJoin(s DiscordSession, i *discordgo.InteractionCreate) error {
	if err := h.ensureSession(i.GuildID, interactionUserID(i)); err != nil {
		return err
	}
	return respondText(s, i, "Joined")
}

func (h *InteractionHandler) handleLeave(s DiscordSession, i *discordgo.InteractionCreate) error {
	if err := h.deps.Player.Stop(i.GuildID); err != nil {
		return err
	}
	if err := h.deps.Voice.CloseSession(i.GuildID); err != nil {
		if errors.Is(err, voice.ErrNotConnected) {
			return userErrorf("I am not in a voice channel")
		}
		return err
	}
	return respondText(s, i, "Left the voice channel")
}

func (h *InteractionHandler) handlePlay(s DiscordSession, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	soundName := optionString(options, "sound")
	if soundName == "" {
		return userErrorf("a sound name is required")
	}

	filter := transcode.FilterNone
	if raw := optionString(options, "filter"); raw != "" {
		parsed, err := transcode.ParseFilter(raw)
		if err != nil {
			return userErrorf("unknown filter %q", raw)
		}
		filter = parsed
	}

	if err := h.playSound(i.GuildID, interactionUserID(i), soundName, filter); err != nil {
		return err
	}
	return respondText(s, i, fmt.Sprintf("Queued **%s**", soundName))
}

func (h *InteractionHandler) handleVox(s DiscordSession, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	message := optionString(options, "message")
	gap := h.deps.DefaultGapMs
	if raw, ok := optionInt(options, "gap"); ok {
		gap = raw
	}
	group := h.deps.VoxGroup
	if raw := optionString(options, "voice"); raw != "" {
		group = raw
	}

	result, err := h.deps.Vox.Concatenate(message, group, gap)
	if err != nil {
		var gapErr *vox.InvalidGapError
		switch {
		case errors.Is(err, vox.ErrNoClipsMatched):
			return userErrorf("none of those words have clips in the %q voice", group)
		case errors.As(err, &gapErr):
			return userErrorf("gap must be between %d and %d milliseconds", vox.GapMsMin, vox.GapMsMax)
		default:
			return err
		}
	}

	if err := h.ensureSession(i.GuildID, interactionUserID(i)); err != nil {
		return err
	}

	id, err := h.deps.IDs.Next()
	if err != nil {
		return fmt.Errorf("failed to generate request id: %w", err)
	}
	req := playback.Request{
		ID:          id,
		Name:        "vox: " + message,
		Source:      transcode.PCMSource(result.PCM),
		RequestedBy: interactionUserID(i),
		EnqueuedAt:  time.Now(),
		DurationMs:  result.Duration().Milliseconds(),
	}
	if err := h.deps.Player.Enqueue(i.GuildID, req); err != nil {
		return err
	}

	return respondText(s, i, fmt.Sprintf(
		"Speaking %d of %d words (%.0f%% matched)",
		result.Matched(), result.Matched()+len(result.Skipped), result.MatchPercent(),
	))
}

func (h *InteractionHandler) handlePlayMode(s DiscordSession, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	mode, err := playback.ParseMode(optionString(options, "mode"))
	if err != nil {
		return userErrorf("mode must be queue or replace")
	}
	h.deps.Player.SetMode(i.GuildID, mode)
	return respondText(s, i, fmt.Sprintf("Play mode set to %s", mode))
}

func (h *InteractionHandler) handleAnnounce(s DiscordSession, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	if len(options) == 0 {
		return nil
	}
	sub := options[0]
	ctx := context.Background()

	switch sub.Name {
	case "add":
		name := optionString(sub.Options, "name")
		soundName := optionString(sub.Options, "sound")
		cron := optionString(sub.Options, "cron")
		if err := schedule.ValidateCron(cron); err != nil {
			return userErrorf("%q is not a valid cron expression", cron)
		}
		if err := h.checkSoundExists(ctx, i.GuildID, soundName); err != nil {
			return err
		}

		id, err := h.deps.IDs.Next()
		if err != nil {
			return fmt.Errorf("failed to generate announcement id: %w", err)
		}
		if err := h.deps.Announcements.Save(ctx, announce.Announcement{
			ID:        id,
			GuildID:   i.GuildID,
			Name:      name,
			SoundName: soundName,
			Cron:      cron,
		}); err != nil {
			return err
		}
		return respondText(s, i, fmt.Sprintf("Scheduled **%s** to play %s on `%s`", name, soundName, cron))

	case "list":
		announcements, err := h.deps.Announcements.List(ctx, i.GuildID)
		if err != nil {
			return err
		}
		return s.InteractionRespond(i.Interaction, presenters.BuildAnnouncementListResponse(announcements))

	case "remove":
		name := optionString(sub.Options, "name")
		err := h.deps.Announcements.Delete(ctx, i.GuildID, name)
		if errors.Is(err, announce.ErrNotFound) {
			return userErrorf("no announcement named %q exists", name)
		}
		if err != nil {
			return err
		}
		return respondText(s, i, fmt.Sprintf("Removed **%s**", name))
	}
	return nil
}

// playSound verifies the sound exists, joins the requester's channel if
// needed, and enqueues the request. Responding is the caller's job.
func (h *InteractionHandler) playSound(guildID, userID, soundName string, filter transcode.Filter) error {
	ctx := context.Background()
	if err := h.checkSoundExists(ctx, guildID, soundName); err != nil {
		return err
	}
	if err := h.ensureSession(guildID, userID); err != nil {
		return err
	}

	id, err := h.deps.IDs.Next()
	if err != nil {
		return fmt.Errorf("failed to generate request id: %w", err)
	}

	key := datalayer.SoundKey(guildID, soundName)
	req := playback.Request{
		ID:   id,
		Name: soundName,
		Source: transcode.Source{
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return h.deps.Storage.Get(ctx, key)
			},
		},
		Filter:      filter,
		RequestedBy: userID,
		EnqueuedAt:  time.Now(),
	}
	return h.deps.Player.Enqueue(guildID, req)
}

// ensureSession joins the user's voice channel unless the bot already has a
// session in the guild.
func (h *InteractionHandler) ensureSession(guildID, userID string) error {
	if _, ok := h.deps.Voice.GetSession(guildID); ok {
		return nil
	}
	channelID, ok := h.deps.Locator.UserVoiceChannel(guildID, userID)
	if !ok {
		return userErrorf("join a voice channel first")
	}
	if _, err := h.deps.Voice.EnsureSession(context.Background(), guildID, channelID); err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}
	return nil
}

func (h *InteractionHandler) checkSoundExists(ctx context.Context, guildID, soundName string) error {
	rc, err := h.deps.Storage.Get(ctx, datalayer.SoundKey(guildID, soundName))
	if err != nil {
		slog.Warn("sound lookup failed", "guildID", guildID, "sound", soundName, "error", err)
		return &SoundNotFoundError{GuildID: guildID, Name: soundName}
	}
	return rc.Close()
}

func (h *InteractionHandler) respondError(s DiscordSession, i *discordgo.InteractionCreate, err error) {
	var notFound *SoundNotFoundError
	if errors.As(err, &notFound) {
		if rerr := respondText(s, i, fmt.Sprintf("no sound named %q exists", notFound.Name)); rerr != nil {
			slog.Error("failed to respond with sound-not-found error", "error", rerr)
		}
		return
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		if rerr := respondText(s, i, userErr.Message); rerr != nil {
			slog.Error("failed to respond with user error", "error", rerr)
		}
		return
	}

	slog.Error("interaction failed", "error", err)
	if rerr := respondText(s, i, "Something went wrong"); rerr != nil {
		slog.Error("failed to respond with generic error", "error", rerr)
	}
}

func respondText(s DiscordSession, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, option := range options {
		if option.Name == name && option.Type == discordgo.ApplicationCommandOptionString {
			return option.StringValue()
		}
	}
	return ""
}

func optionInt(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (int, bool) {
	for _, option := range options {
		if option.Name == name && option.Type == discordgo.ApplicationCommandOptionInteger {
			return int(option.IntValue()), true
		}
	}
	return 0, false
}
