package announce_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cpike5/discordbot-sub005/internal/announce"
	"github.com/cpike5/discordbot-sub005/internal/datalayer"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := t.Context()

	postgresContainer, err := postgres.Run(
		ctx,
		"postgres",
		postgres.WithDatabase("discordbot"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := datalayer.MigratePostgres(pool); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}
	return pool
}

func TestRepositorySave(t *testing.T) {
	ctx := t.Context()
	pool := newTestPool(t)
	repo := announce.NewRepository(pool)

	id := "e281f5c0-c05f-423d-9add-c0ffee084f27"
	if err := repo.Save(ctx, announce.Announcement{
		ID:        id,
		GuildID:   "1234567890",
		Name:      "morning-bell",
		SoundName: "bell",
		Cron:      "* * * * *",
	}); err != nil {
		t.Fatalf("failed to save announcement: %v", err)
	}

	t.Run("the announcement is saved as a row", func(t *testing.T) {
		var got announce.Announcement
		err := pool.QueryRow(ctx,
			"SELECT id, guild_id, announcement_name, sound_name, cron FROM announcement WHERE id = $1", id,
		).Scan(&got.ID, &got.GuildID, &got.Name, &got.SoundName, &got.Cron)
		if err != nil {
			t.Fatalf("failed to query announcement: %v", err)
		}
		if got.Name != "morning-bell" || got.SoundName != "bell" || got.Cron != "* * * * *" {
			t.Errorf("announcement does not match expected values: %+v", got)
		}
	})

	t.Run("the announcement has upcoming jobs", func(t *testing.T) {
		rows, err := pool.Query(ctx,
			"SELECT run_time FROM announcement_job WHERE announcement_id = $1", id)
		if err != nil {
			t.Fatalf("failed to query jobs: %v", err)
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			count++
			var runTime time.Time
			if err := rows.Scan(&runTime); err != nil {
				t.Fatalf("failed to scan row: %v", err)
			}
			if runTime.Before(time.Now().Add(-time.Minute)) || runTime.After(time.Now().Add(6*time.Minute)) {
				t.Errorf("run time is out of range: %v", runTime)
			}
		}
		if count == 0 {
			t.Fatal("no jobs were materialized")
		}
	})

	t.Run("saving the same name again updates in place", func(t *testing.T) {
		if err := repo.Save(ctx, announce.Announcement{
			ID:        "ffffffff-0000-0000-0000-000000000000",
			GuildID:   "1234567890",
			Name:      "morning-bell",
			SoundName: "horn",
			Cron:      "*/5 * * * *",
		}); err != nil {
			t.Fatalf("failed to upsert announcement: %v", err)
		}

		list, err := repo.List(ctx, "1234567890")
		if err != nil {
			t.Fatalf("failed to list announcements: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 announcement after upsert, got %d", len(list))
		}
		if list[0].SoundName != "horn" {
			t.Errorf("sound name not updated: %+v", list[0])
		}
	})
}

func TestRepositoryClaimDue(t *testing.T) {
	ctx := t.Context()
	pool := newTestPool(t)
	repo := announce.NewRepository(pool)

	id := "11111111-2222-3333-4444-555555555555"
	if err := repo.Save(ctx, announce.Announcement{
		ID:        id,
		GuildID:   "42",
		Name:      "hourly",
		SoundName: "chime",
		Cron:      "* * * * *",
	}); err != nil {
		t.Fatalf("failed to save announcement: %v", err)
	}

	jobs, err := repo.ClaimDue(ctx, time.Now().Add(2*time.Minute), 10)
	if err != nil {
		t.Fatalf("failed to claim jobs: %v", err)
	}
	if len(jobs) == 0 {
		t.Fatal("no jobs claimed inside the horizon")
	}
	for _, j := range jobs {
		if j.GuildID != "42" || j.SoundName != "chime" || j.Cron != "* * * * *" {
			t.Errorf("claimed job missing announcement details: %+v", j)
		}
	}

	t.Run("claimed jobs are not claimed twice", func(t *testing.T) {
		again, err := repo.ClaimDue(ctx, time.Now().Add(2*time.Minute), 10)
		if err != nil {
			t.Fatalf("failed to re-claim: %v", err)
		}
		for _, j := range again {
			for _, prev := range jobs {
				if j.ID == prev.ID {
					t.Errorf("job %d claimed twice", j.ID)
				}
			}
		}
	})

	t.Run("claiming tops the run-time window back up", func(t *testing.T) {
		var unclaimed int
		err := pool.QueryRow(ctx,
			"SELECT count(*) FROM announcement_job WHERE announcement_id = $1 AND claimed_at IS NULL", id,
		).Scan(&unclaimed)
		if err != nil {
			t.Fatalf("failed to count unclaimed jobs: %v", err)
		}
		if unclaimed == 0 {
			t.Error("run-time window was not replenished after claiming")
		}
	})
}

func TestRepositoryDelete(t *testing.T) {
	ctx := t.Context()
	pool := newTestPool(t)
	repo := announce.NewRepository(pool)

	if err := repo.Save(ctx, announce.Announcement{
		ID:        "99999999-8888-7777-6666-555555555555",
		GuildID:   "7",
		Name:      "lunch",
		SoundName: "gong",
		Cron:      "0 12 * * *",
	}); err != nil {
		t.Fatalf("failed to save announcement: %v", err)
	}

	if err := repo.Delete(ctx, "7", "lunch"); err != nil {
		t.Fatalf("failed to delete announcement: %v", err)
	}
	if err := repo.Delete(ctx, "7", "lunch"); !errors.Is(err, announce.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	var jobs int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM announcement_job").Scan(&jobs); err != nil {
		t.Fatalf("failed to count jobs: %v", err)
	}
	if jobs != 0 {
		t.Errorf("expected cascade delete of jobs, %d remain", jobs)
	}
}
