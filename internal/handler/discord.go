// Package handler routes Discord interactions to the playback core.
package handler

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type InteractionCreateHandler = func(*discordgo.Session, *discordgo.InteractionCreate)

// DiscordSession is the slice of *discordgo.Session the handlers need.
// Tests substitute a mock.
type DiscordSession interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, wh *discordgo.WebhookEdit, opts ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Ready returns the ready handler. A non-empty activity is published as the
// bot's playing status.
func Ready(activity string) ReadyHandler {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "username", r.User.Username, "userID", r.User.ID)
		if activity == "" {
			return
		}
		if err := s.UpdateGameStatus(0, activity); err != nil {
			slog.Warn("failed to set activity", "error", err)
		}
	}
}

type Handlers struct {
	Ready             ReadyHandler
	InteractionCreate InteractionCreateHandler
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	s.Identify.Intents |= discordgo.IntentGuildVoiceStates

	s.AddHandler(handlers.Ready)
	s.AddHandler(handlers.InteractionCreate)

	return s, nil
}
