// Package announce schedules recurring sound announcements. Announcements
// are cron expressions stored in Postgres; a poller claims materialized run
// times and plays the configured sound into the guild's busiest channel.
package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpike5/discordbot-sub005/internal/schedule"
)

// Announcement is one recurring playback rule for a guild.
type Announcement struct {
	ID        string
	GuildID   string
	Name      string
	SoundName string
	Cron      string
	CreatedAt time.Time
}

// Job is one claimed run of an announcement.
type Job struct {
	ID             int64
	AnnouncementID string
	GuildID        string
	SoundName      string
	Cron           string
	RunTime        time.Time
}

// ErrNotFound is returned when a guild has no announcement with the
// requested name.
var ErrNotFound = errors.New("announcement not found")

// runTimesAhead is how many future run times are materialized per
// announcement. Claiming a job tops the window back up.
const runTimesAhead = 5

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Save upserts the announcement and materializes its next run times in the
// same transaction.
func (r *Repository) Save(ctx context.Context, a Announcement) error {
	const announcementQuery = `
	INSERT INTO announcement (id, guild_id, announcement_name, sound_name, cron)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (guild_id, announcement_name) DO UPDATE SET
		sound_name = EXCLUDED.sound_name,
		cron = EXCLUDED.cron
	`

	nextRunTimes, err := schedule.NextRunTimesAfter(a.Cron, time.Now().UTC(), runTimesAhead)
	if err != nil {
		return fmt.Errorf("failed to get next run times: %w", err)
	}

	const jobsQuery = `
	INSERT INTO announcement_job (announcement_id, run_time)
	SELECT (SELECT id FROM announcement WHERE guild_id = $1 AND announcement_name = $2),
	       unnest($3::timestamptz[])
	ON CONFLICT (announcement_id, run_time) DO NOTHING
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, announcementQuery, a.ID, a.GuildID, a.Name, a.SoundName, a.Cron); err != nil {
		return fmt.Errorf("failed to upsert announcement: %w", err)
	}
	if _, err := tx.Exec(ctx, jobsQuery, a.GuildID, a.Name, nextRunTimes); err != nil {
		return fmt.Errorf("failed to insert announcement jobs: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns the guild's announcements ordered by name.
func (r *Repository) List(ctx context.Context, guildID string) ([]Announcement, error) {
	const query = `
	SELECT id, guild_id, announcement_name, sound_name, cron, created_at
	FROM announcement
	WHERE guild_id = $1
	ORDER BY announcement_name
	`

	rows, err := r.db.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.GuildID, &a.Name, &a.SoundName, &a.Cron, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes the named announcement and its unclaimed jobs.
func (r *Repository) Delete(ctx context.Context, guildID, name string) error {
	const query = `DELETE FROM announcement WHERE guild_id = $1 AND announcement_name = $2`

	tag, err := r.db.Exec(ctx, query, guildID, name)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimDue atomically claims unclaimed jobs due before cutoff. SKIP LOCKED
// keeps concurrent pollers from claiming the same job twice.
func (r *Repository) ClaimDue(ctx context.Context, cutoff time.Time, limit int) ([]Job, error) {
	const query = `
	UPDATE announcement_job SET claimed_at = now()
	WHERE id IN (
		SELECT id FROM announcement_job
		WHERE claimed_at IS NULL AND run_time <= $1
		ORDER BY run_time
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, announcement_id, run_time
	`

	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due jobs: %w", err)
	}
	claimed, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Job, error) {
		var j Job
		err := row.Scan(&j.ID, &j.AnnouncementID, &j.RunTime)
		return j, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan claimed jobs: %w", err)
	}

	// Attach announcement details and top the run-time window back up.
	out := claimed[:0]
	for _, j := range claimed {
		const detailQuery = `
		SELECT guild_id, sound_name, cron FROM announcement WHERE id = $1
		`
		err := r.db.QueryRow(ctx, detailQuery, j.AnnouncementID).Scan(&j.GuildID, &j.SoundName, &j.Cron)
		if errors.Is(err, pgx.ErrNoRows) {
			// Announcement deleted between claim and lookup; drop the job.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load announcement for job %d: %w", j.ID, err)
		}
		if err := r.extend(ctx, j.AnnouncementID, j.Cron, j.RunTime); err != nil {
			slog.Error("failed to extend announcement run times",
				"announcementID", j.AnnouncementID, "error", err)
		}
		out = append(out, j)
	}
	return out, nil
}

// extend materializes the next run times after the one just claimed.
func (r *Repository) extend(ctx context.Context, announcementID, cron string, after time.Time) error {
	nextRunTimes, err := schedule.NextRunTimesAfter(cron, after, runTimesAhead)
	if err != nil {
		return err
	}

	const query = `
	INSERT INTO announcement_job (announcement_id, run_time)
	SELECT $1, unnest($2::timestamptz[])
	ON CONFLICT (announcement_id, run_time) DO NOTHING
	`
	_, err = r.db.Exec(ctx, query, announcementID, nextRunTimes)
	return err
}
