package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

func TestSetup(t *testing.T) {
	// Reset logger for testing
	logger = nil
	once = *new(sync.Once)

	Setup("DEBUG")
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, nil)
	logger = slog.New(h)

	l2 := WithComponent("test-comp")
	l2.Info("hello")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if out["component"] != "test-comp" {
		t.Errorf("Expected component 'test-comp', got %v", out["component"])
	}
	if out["msg"] != "hello" {
		t.Errorf("Expected msg 'hello', got %v", out["msg"])
	}
}

func TestLevelFallback(t *testing.T) {
	// Reset logger for testing
	logger = nil
	once = *new(sync.Once)

	Setup("NOT_A_LEVEL")
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Expected INFO fallback to be enabled")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("DEBUG should not be enabled after fallback")
	}
}
