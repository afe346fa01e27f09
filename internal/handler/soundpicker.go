package handler

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cpike5/discordbot-sub005/internal/presenters"
	"github.com/cpike5/discordbot-sub005/internal/transcode"
)

// newSoundPickerFlow builds the /sounds flow: a select menu of the guild's
// uploaded sounds, followed by playback of the chosen one.
func newSoundPickerFlow(h *InteractionHandler) *Flow {
	return &Flow{
		ID: "sound_picker",
		Root: &Node{
			ID: "pick",
			Matcher: func(i *discordgo.InteractionCreate) bool {
				if i.Type != discordgo.InteractionApplicationCommand {
					return false
				}
				return i.ApplicationCommandData().Name == "sounds"
			},
			Handler: func(s DiscordSession, i *discordgo.InteractionCreate, ctx *FlowContext) error {
				sounds, err := h.deps.Storage.List(context.Background(), "sounds/"+i.GuildID)
				if err != nil {
					return err
				}
				resp := presenters.BuildSoundSelectResponse(
					sounds,
					CustomID(presenters.ComponentIDSoundSelect, ctx.InstanceID),
				)
				return s.InteractionRespond(i.Interaction, resp)
			},
			Next: []*Node{
				{
					ID: "play",
					Matcher: func(i *discordgo.InteractionCreate) bool {
						if i.Type != discordgo.InteractionMessageComponent {
							return false
						}
						return strings.HasPrefix(i.MessageComponentData().CustomID, presenters.ComponentIDSoundSelect+":")
					},
					Handler: func(s DiscordSession, i *discordgo.InteractionCreate, ctx *FlowContext) error {
						values := i.MessageComponentData().Values
						if len(values) == 0 {
							return nil
						}
						soundName := values[0]
						if err := h.playSound(i.GuildID, interactionUserID(i), soundName, transcode.FilterNone); err != nil {
							return err
						}
						return respondText(s, i, "Queued **"+soundName+"**")
					},
				},
			},
		},
	}
}
