// Package autoleave evicts voice sessions whose channel has sat empty past
// the configured idle timeout.
package autoleave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cpike5/discordbot-sub005/internal/voice"
)

// Occupancy reports how many non-bot users sit in a voice channel.
type Occupancy interface {
	Occupancy(guildID, channelID string) (int, error)
}

// Stopper halts playback for a guild before its session is torn down.
type Stopper interface {
	Stop(guildID string) error
}

// Scheduler sweeps live voice sessions on a fixed interval.
//
// A session is evicted once its channel's human occupancy has remained zero
// for at least idleTimeout. Any occupancy resets the clock. An idleTimeout
// of zero disables auto-leave entirely; such sessions only leave on explicit
// commands or stream failure.
type Scheduler struct {
	sessions    *voice.Manager
	occupancy   Occupancy
	playback    Stopper
	interval    time.Duration
	idleTimeout time.Duration

	mu         sync.Mutex
	emptySince map[string]time.Time
}

func NewScheduler(sessions *voice.Manager, occ Occupancy, playback Stopper, interval, idleTimeout time.Duration) *Scheduler {
	return &Scheduler{
		sessions:    sessions,
		occupancy:   occ,
		playback:    playback,
		interval:    interval,
		idleTimeout: idleTimeout,
		emptySince:  make(map[string]time.Time),
	}
}

// Run sweeps until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep examines every live session once. Sessions are checked concurrently
// so a slow occupancy lookup for one guild cannot starve the rest.
func (s *Scheduler) sweep(ctx context.Context) {
	// A zero timeout means auto-leave is disabled.
	if s.idleTimeout <= 0 {
		return
	}

	active := s.sessions.Active()

	s.mu.Lock()
	// Forget empty-channel clocks for guilds whose sessions are already gone.
	live := make(map[string]bool, len(active))
	for _, info := range active {
		live[info.GuildID] = true
	}
	for guildID := range s.emptySince {
		if !live[guildID] {
			delete(s.emptySince, guildID)
		}
	}
	s.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, info := range active {
		g.Go(func() error {
			s.check(info)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) check(info voice.Info) {
	if info.Status != voice.StatusConnected {
		return
	}

	count, err := s.occupancy.Occupancy(info.GuildID, info.ChannelID)
	if err != nil {
		slog.Warn("occupancy lookup failed", "guildID", info.GuildID, "channelID", info.ChannelID, "error", err)
		return
	}

	s.mu.Lock()
	if count > 0 {
		delete(s.emptySince, info.GuildID)
		s.mu.Unlock()
		return
	}
	since, seen := s.emptySince[info.GuildID]
	if !seen {
		s.emptySince[info.GuildID] = time.Now()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if time.Since(since) >= s.idleTimeout {
		s.evict(info.GuildID, "channel empty past idle timeout")
	}
}

func (s *Scheduler) evict(guildID, reason string) {
	slog.Info("auto-leaving voice channel", "guildID", guildID, "reason", reason)
	if s.playback != nil {
		if err := s.playback.Stop(guildID); err != nil {
			slog.Error("auto-leave playback stop failed", "guildID", guildID, "error", err)
		}
	}
	if err := s.sessions.CloseSession(guildID); err != nil {
		slog.Error("auto-leave close failed", "guildID", guildID, "error", err)
	}
	s.mu.Lock()
	delete(s.emptySince, guildID)
	s.mu.Unlock()
}
