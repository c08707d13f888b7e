package testsupport

import (
	"context"
	"os"
	"testing"

	"labnote/internal/config"
	"labnote/internal/labnote"
	"labnote/internal/labstore"
)

// PostgresDSNEnv names the variable enabling postgres-backed tests.
const PostgresDSNEnv = "LABNOTE_TEST_POSTGRES_DSN"

// MustOpenStore opens a labstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...labstore.Option) *labstore.Store {
	t.Helper()

	store, err := labstore.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("labstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PostgresDSN returns the test DSN or skips the test when none is configured.
func PostgresDSN(t testing.TB) string {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	return dsn
}

// MustUpsert stores rec and fails the test on error.
func MustUpsert(t testing.TB, store *labstore.Store, rec labnote.Record) {
	t.Helper()

	if err := store.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("store.Upsert(%s): %v", rec.ExperimentID, err)
	}
}
