package labstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPostgresRebind(t *testing.T) {
	got := postgresDialect{}.rebind("SELECT * FROM t WHERE a = ? AND b = ? LIMIT ?")
	want := "SELECT * FROM t WHERE a = $1 AND b = $2 LIMIT $3"
	if got != want {
		t.Fatalf("rebind = %q, want %q", got, want)
	}
	if q := (sqliteDialect{}).rebind("a = ?"); q != "a = ?" {
		t.Fatalf("sqlite rebind changed query: %q", q)
	}
}

func TestSQLiteDSNAddsPragmas(t *testing.T) {
	got := sqliteDialect{}.dsn("/tmp/lab.db")
	want := "/tmp/lab.db?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
	if got := (sqliteDialect{}).dsn("file:lab.db?mode=rwc"); got[:len("file:lab.db?mode=rwc&")] != "file:lab.db?mode=rwc&" {
		t.Fatalf("existing query not extended: %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?, ?, ?" {
		t.Fatalf("placeholders(3) = %q", got)
	}
	if got := placeholders(0); got != "" {
		t.Fatalf("placeholders(0) = %q", got)
	}
}

func TestRedactDSN(t *testing.T) {
	cases := map[string]string{
		"postgres://lab:secret@db:5432/labnote": "postgres://lab:***@db:5432/labnote",
		"postgres://lab@db/labnote":             "postgres://lab@db/labnote",
		"host=db user=lab":                      "host=db user=lab",
	}
	for in, want := range cases {
		if got := redactDSN("postgres", in); got != want {
			t.Fatalf("redactDSN(%q) = %q, want %q", in, got, want)
		}
	}
	if got := redactDSN("sqlite", "/a:b@c"); got != "/a:b@c" {
		t.Fatalf("sqlite path altered: %q", got)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if !isSQLiteBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy error to be detected")
	}
	if isSQLiteBusy(errors.New("no such table")) || isSQLiteBusy(nil) {
		t.Fatal("unexpected busy classification")
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var (
		k       keyedMutex
		active  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.lock(context.Background(), "EXP-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := active.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen.Load() != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxSeen.Load())
	}
	if len(k.locks) != 0 {
		t.Fatalf("expected idle locks to be released, got %d", len(k.locks))
	}
}

func TestParseTimeRoundTrip(t *testing.T) {
	ts := time.Date(2025, 8, 3, 14, 5, 9, 120, time.UTC)
	if got := parseTime(formatTime(ts)); !got.Equal(ts) {
		t.Fatalf("round trip = %v, want %v", got, ts)
	}
	if !parseTime("").IsZero() || !parseTime("garbage").IsZero() {
		t.Fatal("expected zero time for unparsable input")
	}
}
