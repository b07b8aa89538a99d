package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Init is idempotent
	if err := Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	logger := Get()
	ctx := context.Background()

	logger.Info(ctx, "info message", String("key", "value"))
	logger.Debug(ctx, "debug message", Int("count", 3))
	logger.Warn(ctx, "warn message", Bool("flag", true))
	logger.Error(ctx, "error message", Error(errors.New("boom")), Float64("score", 0.5))
}

func TestLoggerNamed(t *testing.T) {
	named := Named("settings")
	if named == nil {
		t.Fatal("Named returned nil")
	}
	named.Info(context.Background(), "named logger message")

	child := named.Named("nested")
	if child == nil {
		t.Fatal("nested Named returned nil")
	}
}

func TestSetLevelString(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", level, err)
		}
	}
	if err := SetLevelString("shouting"); err == nil {
		t.Error("expected error for unknown level")
	}
	SetLevel(slog.LevelInfo)
}
