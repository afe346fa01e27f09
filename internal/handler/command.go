package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/cpike5/discordbot-sub005/internal/transcode"
	"github.com/cpike5/discordbot-sub005/internal/vox"
)

func filterChoices() []*discordgo.ApplicationCommandOptionChoice {
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, f := range transcode.Filters() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(f),
			Value: string(f),
		})
	}
	return choices
}

var (
	voxGapMin = float64(vox.GapMsMin)
	voxGapMax = float64(vox.GapMsMax)
)

// Commands is the full set of slash commands the bot registers.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "ping",
		Description: "Check that the bot is responsive",
	},
	{
		Name:        "join",
		Description: "Join your current voice channel",
	},
	{
		Name:        "leave",
		Description: "Stop playback and leave the voice channel",
	},
	{
		Name:        "play",
		Description: "Play an uploaded sound in your voice channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "sound",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The name of the sound to play.",
				Required:    true,
			},
			{
				Name:        "filter",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "An audio filter to apply.",
				Required:    false,
				Choices:     filterChoices(),
			},
		},
	},
	{
		Name:        "sounds",
		Description: "Pick a sound to play from a menu",
	},
	{
		Name:        "vox",
		Description: "Speak a message using voice clips",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "message",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The message to speak.",
				Required:    true,
			},
			{
				Name:        "gap",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "Milliseconds of silence between words.",
				Required:    false,
				MinValue:    &voxGapMin,
				MaxValue:    voxGapMax,
			},
			{
				Name:        "voice",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The clip group to speak with.",
				Required:    false,
			},
		},
	},
	{
		Name:        "stop",
		Description: "Stop playback and clear the queue",
	},
	{
		Name:        "queue",
		Description: "Show what is playing and what is queued",
	},
	{
		Name:        "playmode",
		Description: "Choose how new sounds interact with the queue",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "mode",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "queue appends, replace cuts off the current sound.",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "queue", Value: "queue"},
					{Name: "replace", Value: "replace"},
				},
			},
		},
	},
	{
		Name:        "announce",
		Description: "Manage scheduled sound announcements",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Schedule a sound on a cron expression",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "name",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "A name for the announcement.",
						Required:    true,
					},
					{
						Name:        "sound",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The uploaded sound to play.",
						Required:    true,
					},
					{
						Name:        "cron",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The cron expression for when to play it.",
						Required:    true,
					},
				},
			},
			{
				Name:        "list",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "List this server's announcements",
			},
			{
				Name:        "remove",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Remove an announcement",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "name",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The name of the announcement to remove.",
						Required:    true,
					},
				},
			},
		},
	},
}

func EstablishCommands(s *discordgo.Session, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}
	return nil
}
