package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{64, 30 * time.Second}, // no shift overflow
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{"closed connection", amqp091.ErrClosed, true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("write: broken pipe"), true},
		{"auth error", errors.New("Exception (403) Reason: \"username or password not allowed\""), false},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func stubDial(t *testing.T, errs ...error) (calls *int, waits *[]time.Duration) {
	t.Helper()
	origDial, origSleep := dial, sleep
	t.Cleanup(func() { dial, sleep = origDial, origSleep })

	n := 0
	var slept []time.Duration
	dial = func(string) (*amqp091.Connection, error) {
		err := errs[min(n, len(errs)-1)]
		n++
		return nil, err
	}
	sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &n, &slept
}

func TestDialWithRetry_RetriesConnectionErrors(t *testing.T) {
	calls, waits := stubDial(t, errors.New("connection refused"))

	_, err := NewClient(context.Background(), "amqp://localhost:5672/", "ex", "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "dial AMQP") {
		t.Errorf("unexpected error: %v", err)
	}
	if *calls != maxDialAttempts {
		t.Errorf("dial called %d times, want %d", *calls, maxDialAttempts)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if fmt.Sprint(*waits) != fmt.Sprint(want) {
		t.Errorf("backoff = %v, want %v", *waits, want)
	}
}

func TestDialWithRetry_StopsOnOtherErrors(t *testing.T) {
	calls, waits := stubDial(t, errors.New("Exception (403) Reason: ACCESS_REFUSED"))

	if _, err := NewClient(context.Background(), "amqp://localhost:5672/", "ex", "q"); err == nil {
		t.Fatal("expected error")
	}
	if *calls != 1 || len(*waits) != 0 {
		t.Errorf("calls=%d waits=%v, want a single attempt", *calls, *waits)
	}
}

func TestDialWithRetry_RespectsCancellation(t *testing.T) {
	origDial, origSleep := dial, sleep
	t.Cleanup(func() { dial, sleep = origDial, origSleep })
	dial = func(string) (*amqp091.Connection, error) { return nil, errors.New("connection refused") }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(ctx, "amqp://localhost:5672/", "ex", "q")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReportGeneratedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ReportGeneratedMessage{
		RunID:         7,
		OutputPath:    "out.xlsx",
		BudgetTotal:   "1250.25",
		ActualTotal:   "1230.11",
		VarianceTotal: "-20.14",
		Rows:          6,
		InvariantsOK:  true,
		Timestamp:     timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(jsonBytes), `"variance_total":"-20.14"`) {
		t.Errorf("amounts must be strings: %s", jsonBytes)
	}
	if strings.Contains(string(jsonBytes), "failed_rollups") {
		t.Errorf("empty failed_rollups should be omitted: %s", jsonBytes)
	}

	parsed, err := ReportGeneratedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReportGeneratedMessageFromJSON() error = %v", err)
	}
	if parsed.RunID != 7 || parsed.OutputPath != "out.xlsx" || !parsed.Timestamp.Equal(timestamp) {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestReportGeneratedMessage_InvalidJSON(t *testing.T) {
	if _, err := ReportGeneratedMessageFromJSON([]byte(`{"rows": "six"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
