package voice

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// DiscordDialer joins Discord voice channels through a discordgo session.
type DiscordDialer struct {
	Session *discordgo.Session
}

var _ Dialer = (*DiscordDialer)(nil)

func (d *DiscordDialer) Dial(_ context.Context, guildID, channelID string) (Conn, error) {
	vc, err := d.Session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, err
	}
	return &discordConn{vc: vc}, nil
}

// Occupancy returns the number of human (non-bot) members in a voice
// channel, excluding the bot itself. Used by the idle sweep.
func (d *DiscordDialer) Occupancy(guildID, channelID string) (int, error) {
	guild, err := d.Session.State.Guild(guildID)
	if err != nil {
		return 0, err
	}

	selfID := d.Session.State.User.ID
	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID || vs.UserID == selfID {
			continue
		}
		member, err := d.Session.State.Member(guildID, vs.UserID)
		if err == nil && member.User != nil && member.User.Bot {
			continue
		}
		count++
	}
	return count, nil
}

// UserVoiceChannel returns the voice channel a user currently occupies.
func (d *DiscordDialer) UserVoiceChannel(guildID, userID string) (string, bool) {
	vs, err := d.Session.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// BusiestVoiceChannel returns the guild's most occupied voice channel.
// Announcements target this channel.
func (d *DiscordDialer) BusiestVoiceChannel(guildID string) (string, bool) {
	guild, err := d.Session.State.Guild(guildID)
	if err != nil {
		return "", false
	}

	counts := make(map[string]int)
	selfID := d.Session.State.User.ID
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == "" || vs.UserID == selfID {
			continue
		}
		counts[vs.ChannelID]++
	}

	best, bestCount := "", 0
	for channelID, count := range counts {
		if count > bestCount {
			best, bestCount = channelID, count
		}
	}
	return best, best != ""
}

type discordConn struct {
	vc *discordgo.VoiceConnection
}

var _ Conn = (*discordConn)(nil)

func (c *discordConn) Speaking(b bool) error {
	return c.vc.Speaking(b)
}

func (c *discordConn) Disconnect() error {
	return c.vc.Disconnect()
}

func (c *discordConn) OpusSend() chan<- []byte {
	return c.vc.OpusSend
}
