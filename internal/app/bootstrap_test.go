package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/courier-ledger/internal/config"
	"github.com/courier-ledger/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAppTest(t *testing.T) *config.Config {
	t.Helper()
	dsn := fmt.Sprintf("file:app_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateLedger(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return &config.Config{
		App: config.AppConfig{Name: "courier-ledger", Mode: "debug"},
		Ledger: config.LedgerConfig{
			Currency:                 "INR",
			ClearanceWindowHours:     24,
			ClearanceIntervalMinutes: 5,
			MinPayoutAmount:          100,
			PlatformEmail:            "platform@ledger.local",
		},
	}
}

func TestBuildRunnerClearanceMode(t *testing.T) {
	cfg := setupAppTest(t)
	runner, container, err := BuildRunner(cfg, ModeClearance)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	defer container.Close()

	names := runner.Names()
	if len(names) != 1 || names[0] != "clearance" {
		t.Fatalf("unexpected services: %v", names)
	}
	if cfg.Ledger.PlatformUserID == 0 {
		t.Fatalf("expected platform account bootstrapped")
	}
}

func TestBuildRunnerAllModeWithoutQueue(t *testing.T) {
	cfg := setupAppTest(t)
	runner, container, err := BuildRunner(cfg, ModeAll)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	defer container.Close()

	names := runner.Names()
	if len(names) != 1 || names[0] != "clearance" {
		t.Fatalf("queue disabled should only run clearance, got %v", names)
	}
}

func TestBuildRunnerWorkerModeRequiresQueue(t *testing.T) {
	cfg := setupAppTest(t)
	if _, _, err := BuildRunner(cfg, ModeWorker); err == nil {
		t.Fatalf("expected error when queue disabled in worker mode")
	}
	if _, _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

type fakeService struct {
	name string
	startFn func(ctx context.Context) error
	stopped bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error { return s.startFn(ctx) }

func (s *fakeService) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllOnCancel(t *testing.T) {
	blocking := func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}
	first := &fakeService{name: "first", startFn: blocking}
	second := &fakeService{name: "second", startFn: blocking}
	runner := NewRunner(first, second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !first.stopped || !second.stopped {
		t.Fatalf("expected all services stopped")
	}
}

func TestRunnerReturnsServiceError(t *testing.T) {
	boom := errors.New("boom")
	failing := &fakeService{name: "failing", startFn: func(context.Context) error { return boom }}
	idle := &fakeService{name: "idle", startFn: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}
	runner := NewRunner(failing, idle)
	if err := runner.Run(context.Background(), time.Second, nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !idle.stopped {
		t.Fatalf("expected idle service stopped")
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.Mode != ModeAll {
		t.Fatalf("expected default mode all, got %s", opts.Mode)
	}
	if opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", opts.ShutdownTimeout)
	}
	if opts.Logger == nil {
		t.Fatalf("expected logger")
	}
}
