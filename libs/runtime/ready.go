package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const DefaultCheckTimeout = 2 * time.Second

// ReadyCheck is a named dependency check for /readyz. A failing Optional
// check is reported but leaves the service ready.
type ReadyCheck struct {
	Name     string
	Check    func(context.Context) error
	Timeout  time.Duration
	Optional bool
}

type checkResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Optional   bool   `json:"optional,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type readyReport struct {
	Status string        `json:"status"`
	Checks []checkResult `json:"checks"`
}

func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		report := runChecks(r.Context(), checks)
		status := http.StatusOK
		if report.Status != "ready" {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
	return mux
}

// runChecks runs every check in parallel, each under its own timeout.
func runChecks(ctx context.Context, checks []ReadyCheck) readyReport {
	results := make([]checkResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		name := check.Name
		if name == "" {
			name = "dependency"
		}
		results[i] = checkResult{Name: name, Status: "ok", Optional: check.Optional}
		if check.Check == nil {
			continue
		}
		timeout := check.Timeout
		if timeout <= 0 {
			timeout = DefaultCheckTimeout
		}
		wg.Add(1)
		go func(res *checkResult, fn func(context.Context) error) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			start := time.Now()
			err := fn(cctx)
			res.DurationMS = time.Since(start).Milliseconds()
			if err != nil {
				res.Status = "failed"
				res.Error = err.Error()
			}
		}(&results[i], check.Check)
	}
	wg.Wait()

	report := readyReport{Status: "ready", Checks: results}
	for _, res := range results {
		if res.Status != "ok" && !res.Optional {
			report.Status = "unavailable"
		}
	}
	return report
}
