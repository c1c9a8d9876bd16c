package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
)

func readyz(t *testing.T, checks ...ReadyCheck) (int, readyReport) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewBaseMuxWithReady(checks...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var report readyReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, report
}

func TestReadyzReportsFailingCheckByName(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	code, report := readyz(t,
		ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }},
		ReadyCheck{Name: "redis", Check: slow, Timeout: 10 * time.Millisecond},
	)
	if code != http.StatusServiceUnavailable || report.Status != "unavailable" {
		t.Fatalf("expected unavailable, got %d %q", code, report.Status)
	}
	if len(report.Checks) != 2 || report.Checks[0].Status != "ok" {
		t.Fatalf("unexpected checks %+v", report.Checks)
	}
	if got := report.Checks[1]; got.Name != "redis" || got.Status != "failed" || got.Error == "" {
		t.Fatalf("unexpected redis result %+v", got)
	}
}

func TestReadyzOptionalFailureStaysReady(t *testing.T) {
	code, report := readyz(t,
		ReadyCheck{Name: "kafka", Optional: true, Check: func(context.Context) error { return errors.New("no brokers") }},
	)
	if code != http.StatusOK || report.Status != "ready" {
		t.Fatalf("expected ready, got %d %q", code, report.Status)
	}
	if !report.Checks[0].Optional || report.Checks[0].Error != "no brokers" {
		t.Fatalf("unexpected kafka result %+v", report.Checks[0])
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewBaseMuxWithReady().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz %d %q", rec.Code, rec.Body.String())
	}
}

func TestWatchSignalsCancelsOnSignal(t *testing.T) {
	ch := make(chan os.Signal, 1)
	ctx, cancel := watchSignals(context.Background(), ch, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer cancel()

	ch <- syscall.SIGTERM
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after signal")
	}
}

func TestParseLevel(t *testing.T) {
	for raw, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	} {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "appointment-service", "warn", "text").Info("dropped")
	newLogger(&buf, "appointment-service", "warn", "text").Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "service=appointment-service") {
		t.Fatalf("unexpected text output %q", out)
	}

	buf.Reset()
	newLogger(&buf, "appointment-service", "", "").Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}
