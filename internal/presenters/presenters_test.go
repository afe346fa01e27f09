package presenters_test

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/cpike5/discordbot-sub005/internal/announce"
	"github.com/cpike5/discordbot-sub005/internal/notify"
	"github.com/cpike5/discordbot-sub005/internal/playback"
	"github.com/cpike5/discordbot-sub005/internal/presenters"
)

func TestBuildSoundSelectResponseEmpty(t *testing.T) {
	resp := presenters.BuildSoundSelectResponse(nil, "sound_select_menu:abc")
	if len(resp.Data.Components) != 0 {
		t.Error("empty sound list should not render a menu")
	}
	if resp.Data.Content == "" {
		t.Error("empty sound list should explain itself")
	}
}

func TestBuildSoundSelectResponseMenu(t *testing.T) {
	resp := presenters.BuildSoundSelectResponse([]string{"horn", "bell"}, "sound_select_menu:abc")

	row, ok := resp.Data.Components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("expected actions row, got %T", resp.Data.Components[0])
	}
	menu, ok := row.Components[0].(discordgo.SelectMenu)
	if !ok {
		t.Fatalf("expected select menu, got %T", row.Components[0])
	}
	if menu.CustomID != "sound_select_menu:abc" {
		t.Errorf("custom ID = %q", menu.CustomID)
	}
	if len(menu.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(menu.Options))
	}
	if menu.Options[0].Label != "horn" || menu.Options[0].Value != "horn" {
		t.Errorf("unexpected first option: %+v", menu.Options[0])
	}
}

func TestBuildQueueResponse(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		resp := presenters.BuildQueueResponse(playback.Status{Mode: playback.ModeQueue})
		if resp.Data.Content != "Nothing is playing" {
			t.Errorf("content = %q", resp.Data.Content)
		}
	})

	t.Run("populated", func(t *testing.T) {
		resp := presenters.BuildQueueResponse(playback.Status{
			Mode:    playback.ModeQueue,
			Current: &notify.QueueItem{Name: "horn", RequestedBy: "alice"},
			Pending: []notify.QueueItem{
				{Name: "bell", RequestedBy: "bob"},
			},
		})
		content := resp.Data.Content
		for _, want := range []string{"**horn**", "alice", "1. bell", "bob", "Mode: queue"} {
			if !strings.Contains(content, want) {
				t.Errorf("content missing %q:\n%s", want, content)
			}
		}
	})
}

func TestBuildAnnouncementListResponse(t *testing.T) {
	resp := presenters.BuildAnnouncementListResponse(nil)
	if !strings.Contains(resp.Data.Content, "No announcements") {
		t.Errorf("content = %q", resp.Data.Content)
	}

	resp = presenters.BuildAnnouncementListResponse([]announce.Announcement{
		{Name: "morning-bell", SoundName: "bell", Cron: "0 9 * * *"},
	})
	content := resp.Data.Content
	for _, want := range []string{"**morning-bell**", "bell", "`0 9 * * *`"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
}
