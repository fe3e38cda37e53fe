package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/snonux/wordreel/internal/history"
)

func TestStartServesEndpoints(t *testing.T) {
	ledger, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	defer ledger.Close()

	now := time.Now()
	err = ledger.Record(context.Background(), history.Run{
		Word: "alpha", Outcome: history.OutcomeCompleted,
		StartedAt: now, FinishedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	orch, _, store := newTestOrchestrator(t, []string{"alpha"}, ledger)

	cfg := DefaultConfig()
	cfg.Bind = "127.0.0.1:0"
	cfg.RunOnStart = false
	cfg.LockPath = filepath.Join(t.TempDir(), "wordreel.lock")

	svc, err := New(cfg, orch, ledger, store, testLogger())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop()

	if svc.Addr() == "" {
		t.Fatal("expected bound address after Start")
	}

	resp, err := http.Get("http://" + svc.Addr() + "/health-check")
	if err != nil {
		t.Fatalf("health check request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health.Message != "Server is working fine." {
		t.Errorf("unexpected health message: %q", health.Message)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	orch, _, store := newTestOrchestrator(t, nil, nil)

	cfg := DefaultConfig()
	cfg.Bind = "127.0.0.1:0"
	cfg.RunOnStart = false
	cfg.Schedule = "not a schedule"

	svc, err := New(cfg, orch, nil, store, testLogger())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Start(context.Background()); err == nil {
		svc.Stop()
		t.Fatal("expected error for invalid cron expression")
	}
}
