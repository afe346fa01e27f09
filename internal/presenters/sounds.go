// Package presenters builds Discord interaction responses from domain
// values. Keeping the rendering here keeps the handlers testable.
package presenters

import (
	"github.com/bwmarrin/discordgo"
)

const ComponentIDSoundSelect = "sound_select_menu"

var noSoundsResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "No sounds have been uploaded for this server yet",
	},
}

var soundSelectMinValues = 1

// BuildSoundSelectResponse renders a select menu of the guild's sounds.
// customID must route the selection back to the caller's flow instance.
func BuildSoundSelectResponse(sounds []string, customID string) *discordgo.InteractionResponse {
	if len(sounds) == 0 {
		return noSoundsResponse
	}

	var options []discordgo.SelectMenuOption
	for _, name := range sounds {
		options = append(options, discordgo.SelectMenuOption{
			Label: name,
			Value: name,
		})
	}

	menu := discordgo.SelectMenu{
		CustomID:    customID,
		Placeholder: "Select a sound",
		MinValues:   &soundSelectMinValues,
		MaxValues:   1,
		Options:     options,
	}

	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			menu,
		},
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Choose a sound:",
			Components: []discordgo.MessageComponent{
				row,
			},
		},
	}
}
