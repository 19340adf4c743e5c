// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-pos/internal/common"
)

const (
	defaultDBTimeout    = 500 * time.Millisecond
	defaultRedisTimeout = 300 * time.Millisecond
)

var draining atomic.Bool

// SetReady toggles readiness. The API turns it off when shutdown starts.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Checker probes the backing stores.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready pings Postgres and Redis in parallel and reports each result by name.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil || draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	probes := []struct {
		name string
		ping func(context.Context, time.Duration) error
		wait time.Duration
	}{
		{"db", h.Checker.PingDB, orDefault(h.DBTimeout, defaultDBTimeout)},
		{"redis", h.Checker.PingRedis, orDefault(h.RedisTimeout, defaultRedisTimeout)},
	}
	results := make([]string, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			results[i] = "ok"
			if err := p.ping(r.Context(), p.wait); err != nil {
				results[i] = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	code := http.StatusOK
	status := make(map[string]string, len(probes))
	for i, p := range probes {
		status[p.name] = results[i]
		if results[i] != "ok" {
			code = http.StatusServiceUnavailable
		}
	}
	common.JSON(w, code, status)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
