package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"labnote/internal/api"
	"labnote/internal/daemon"
	"labnote/internal/labstore"
	"labnote/internal/metrics"
	"labnote/internal/parser"
	"labnote/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	m := metrics.New()
	svc := api.NewService(parser.New(), store, api.WithMetrics(m))

	d, err := daemon.New(cfg, svc, m, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running || status.Address == "" {
		t.Fatalf("unexpected status: %+v", status)
	}

	resp, err := http.Get("http://" + status.Address + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()
	var health labstore.Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if !health.Healthy() {
		t.Fatalf("unhealthy: %+v", health)
	}

	// A second daemon on the same data dir must not acquire the lock.
	other, err := daemon.New(cfg, svc, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("expected second daemon to fail")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}
