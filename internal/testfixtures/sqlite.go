package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/culture-center/internal/persistence"
	"github.com/example/culture-center/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool         *sqlite.ConnectionPool
	Users        persistence.UserRepository
	Campaigns    persistence.CampaignRepository
	Applications persistence.ApplicationRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a migrated database in a temporary directory. Callers
// may invoke Close, but the helper also registers a cleanup with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dsn := "file:" + filepath.Join(tb.TempDir(), "center.db")
	pool, err := sqlite.Open(context.Background(), sqlite.Config{DSN: dsn})
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:         pool,
		Users:        sqlite.NewUserRepository(pool),
		Campaigns:    sqlite.NewCampaignRepository(pool),
		Applications: sqlite.NewApplicationRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// Seed inserts the given users and campaigns, failing the test on error.
func (h *SQLiteHarness) Seed(tb testing.TB, users []persistence.User, campaigns []persistence.Campaign) {
	tb.Helper()
	ctx := context.Background()
	for _, user := range users {
		if err := h.Users.CreateUser(ctx, user); err != nil {
			tb.Fatalf("failed to seed user %s: %v", user.ID, err)
		}
	}
	for _, campaign := range campaigns {
		if err := h.Campaigns.CreateCampaign(ctx, campaign); err != nil {
			tb.Fatalf("failed to seed campaign %s: %v", campaign.ID, err)
		}
	}
}
