package presenters

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cpike5/discordbot-sub005/internal/playback"
)

var emptyQueueResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "Nothing is playing",
	},
}

// BuildQueueResponse renders the current play state and pending queue.
func BuildQueueResponse(st playback.Status) *discordgo.InteractionResponse {
	if st.Current == nil && len(st.Pending) == 0 {
		return emptyQueueResponse
	}

	var b strings.Builder
	if st.Current != nil {
		fmt.Fprintf(&b, "Now playing: **%s** (requested by %s)\n", st.Current.Name, st.Current.RequestedBy)
	}
	for i, item := range st.Pending {
		fmt.Fprintf(&b, "%d. %s (requested by %s)\n", i+1, item.Name, item.RequestedBy)
	}
	fmt.Fprintf(&b, "Mode: %s", st.Mode)

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: b.String(),
		},
	}
}
