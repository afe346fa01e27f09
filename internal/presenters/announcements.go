package presenters

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cpike5/discordbot-sub005/internal/announce"
)

var noAnnouncementsResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "No announcements are scheduled for this server",
	},
}

// BuildAnnouncementListResponse renders the guild's scheduled announcements.
func BuildAnnouncementListResponse(announcements []announce.Announcement) *discordgo.InteractionResponse {
	if len(announcements) == 0 {
		return noAnnouncementsResponse
	}

	var b strings.Builder
	for _, a := range announcements {
		fmt.Fprintf(&b, "**%s** plays %s on `%s`\n", a.Name, a.SoundName, a.Cron)
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: b.String(),
		},
	}
}
