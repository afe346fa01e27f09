package e2e

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cpike5/discordbot-sub005/internal/announce"
	"github.com/cpike5/discordbot-sub005/internal/datalayer"
	"github.com/cpike5/discordbot-sub005/internal/generator"
)

var seedOnce sync.Once

// snowflakeBase puts generated IDs in a realistic Discord snowflake range.
const snowflakeBase = uint64(1e17)

// RandomSnowFlakeGenerator yields unique Discord-style snowflake strings.
type RandomSnowFlakeGenerator struct {
	counter atomic.Uint64
}

func (g *RandomSnowFlakeGenerator) Next() (string, error) {
	return strconv.FormatUint(snowflakeBase+g.counter.Add(1), 10), nil
}

var _ generator.Generator[string] = (*RandomSnowFlakeGenerator)(nil)

// SeedGlobalNoise fills the shared database with announcements for other
// guilds so per-guild queries are exercised against realistic clutter.
func SeedGlobalNoise(t *testing.T, repo *announce.Repository) {
	t.Helper()
	seedOnce.Do(func() {
		uuidGen := generator.UUIDV4Generator{}
		guildIDGen := RandomSnowFlakeGenerator{}
		for i := range 100 {
			id, _ := uuidGen.Next()
			guildID, _ := guildIDGen.Next()

			a := announce.Announcement{
				ID:        id,
				GuildID:   guildID,
				Name:      fmt.Sprintf("noise-announcement-%d", i),
				SoundName: "noise",
				Cron:      "*/5 * * * *",
			}
			if err := repo.Save(t.Context(), a); err != nil {
				t.Fatalf("failed to save announcement: %v", err)
			}
		}
	})
}

var (
	pgOnce      sync.Once
	pgContainer *postgres.PostgresContainer
	pgConnStr   string
	pgStartErr  error
	pgUsers     sync.WaitGroup
)

// UsePostgres provisions the shared postgres container on first use and
// returns its connection string. The database is deliberately shared and
// never reset between tests; per-guild queries must hold up against data
// left behind by other tests.
func UsePostgres(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()
		pgContainer, pgStartErr = postgres.Run(
			ctx,
			"postgres",
			postgres.WithDatabase("discordbot"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if pgStartErr != nil {
			return
		}
		pgConnStr, pgStartErr = pgContainer.ConnectionString(ctx)
		if pgStartErr != nil {
			return
		}

		var pool *pgxpool.Pool
		pool, pgStartErr = pgxpool.New(ctx, pgConnStr)
		if pgStartErr != nil {
			return
		}
		defer pool.Close()

		pgStartErr = datalayer.MigratePostgres(pool)
	})

	if pgStartErr != nil {
		t.Fatalf("failed to start postgres container: %v", pgStartErr)
	}
	pgUsers.Add(1)
	t.Cleanup(pgUsers.Done)

	return pgConnStr
}

// GetRepository creates an announcement repository backed by the shared
// database. It performs no modifications or migrations on the schema.
func GetRepository(t *testing.T, connStr string) *announce.Repository {
	t.Helper()
	pool, err := pgxpool.New(t.Context(), connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}

	t.Cleanup(pool.Close)
	return announce.NewRepository(pool)
}

// TerminatePostgresForE2E tears the shared container down once every test
// that used it has finished. Called from TestMain.
func TerminatePostgresForE2E() {
	pgUsers.Wait()
	if pgContainer == nil {
		return
	}
	if err := pgContainer.Terminate(context.Background()); err != nil {
		fmt.Printf("failed to terminate postgres container: %v\n", err)
	}
}
