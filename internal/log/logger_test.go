package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf}).WithComponent(ComponentIngest)

	logger.Info("loaded", FieldRows, 3)
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=ingest") || !strings.Contains(out, "rows=3") {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("component must appear once: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered at info level")
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := New(Config{Component: ComponentReport, Output: &bytes.Buffer{}})
	ctx := NewContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("FromContext returned a different logger")
	}
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("fallback component = %q", got)
	}
}

func TestFieldsToSliceSorted(t *testing.T) {
	fields := NewFields().
		WithOperation(OpWrite).
		WithError(errors.New("disk full")).
		WithTotals(decimal.NewFromInt(100), decimal.NewFromInt(120), decimal.NewFromInt(20)).
		ToSlice()

	want := []any{
		FieldActualTotal, "120",
		FieldBudgetTotal, "100",
		FieldError, "disk full",
		FieldOperation, OpWrite,
		FieldVariance, "20",
	}
	if len(fields) != len(want) {
		t.Fatalf("got %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("got %v, want %v", fields, want)
		}
	}
}
