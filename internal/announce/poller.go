package announce

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpike5/discordbot-sub005/internal/schedule"
)

// JobRunner executes one claimed announcement job at its run time.
type JobRunner interface {
	Run(ctx context.Context, job Job) error
}

// Poller claims upcoming jobs on an interval and fires each one at its exact
// run time. The claim horizon must be at least the poll interval or jobs due
// between polls fire late.
type Poller struct {
	repo     *Repository
	runner   JobRunner
	interval time.Duration
	horizon  time.Duration
	batch    int
}

func NewPoller(repo *Repository, runner JobRunner, interval time.Duration) *Poller {
	return &Poller{
		repo:     repo,
		runner:   runner,
		interval: interval,
		horizon:  interval,
		batch:    32,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	jobs, err := p.repo.ClaimDue(ctx, time.Now().Add(p.horizon), p.batch)
	if err != nil {
		slog.Error("failed to claim announcement jobs", "error", err)
		return
	}

	for _, job := range jobs {
		schedule.RunAt(ctx, job.RunTime, func(ctx context.Context) {
			if err := p.runner.Run(ctx, job); err != nil {
				slog.Error("announcement job failed",
					"jobID", job.ID,
					"announcementID", job.AnnouncementID,
					"guildID", job.GuildID,
					"error", err)
			}
		})
	}
}
