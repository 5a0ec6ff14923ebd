package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness. Shutdown flips it to false so load balancers
// drain the instance before the listener closes.
func SetReady(v bool) { ready.Store(v) }

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// Handler serves liveness and readiness probes.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Live always reports ok while the process is serving.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and reports 503 if any fails or the instance is draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	status := make(map[string]string, len(h.Probes))
	healthy := true
	for name, probe := range h.Probes {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		err := probe(ctx)
		cancel()
		if err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}
