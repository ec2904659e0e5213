package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/solarstats/internal/dashboard"
	"github.com/chrissnell/solarstats/pkg/config"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, data string) *config.ConfigData {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plant.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	cfg := &config.ConfigData{Source: config.SourceData{Path: path}}
	cfg.ApplyDefaults()
	return cfg
}

func TestNewDashboard(t *testing.T) {
	cfg := testConfig(t, "Stamp;Output\n05.01.2020-10:00;4\n05.01.2020-11:00;6\n")
	cfg.Source.TimestampHeader = "Stamp"
	cfg.Source.Delimiter = ";"
	cfg.Analysis.GenerationKeywords = []string{"output"}
	cfg.Analysis.DefaultBucket = "hourly"

	dash, cache, err := NewDashboard(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := dash.Build(dashboard.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != dashboard.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", report.Status, report.Detail)
	}
	if report.Column != "Output" || len(report.Trend.Points) != 2 || report.Summary.Mean != 5 {
		t.Errorf("unexpected report: column %q, trend %+v", report.Column, report.Trend)
	}
	if cache.Loads() != 1 {
		t.Errorf("expected one load, got %d", cache.Loads())
	}
}

func TestNewDashboardInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Analysis.DefaultBucket = "yearly"
	if _, _, err := NewDashboard(cfg, zap.NewNop().Sugar()); err == nil {
		t.Error("expected an error for an unknown bucket")
	}

	cfg = testConfig(t, "")
	cfg.Analysis.MissingValues = "ignore"
	if _, _, err := NewDashboard(cfg, zap.NewNop().Sugar()); err == nil {
		t.Error("expected an error for an unknown missing value policy")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "Date-Hour(NMT),Power\n05.01.2020-10:00,1\n")
	cfg.Server.ListenAddr = "127.0.0.1"
	cfg.Server.HTTPPort = 18089

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(cfg, zap.NewNop().Sugar()).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
