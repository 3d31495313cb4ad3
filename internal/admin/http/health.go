package http

import (
	"net/http"
	"time"

	"github.com/fernwebstudio/siteadmin/internal/admin/store"
	"github.com/fernwebstudio/siteadmin/pkg/httpx"
)

// HealthResponse is the body served by the livez and readyz probes.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// LivezHandler reports process liveness. It never touches dependencies.
func LivezHandler(startTime time.Time, version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	})
}

// ReadyzHandler reports readiness to serve traffic. The store check fails
// when the credential file exists but cannot be decrypted or parsed.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  map[string]string{"store": "ok"},
		}

		code := http.StatusOK
		if err := st.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Checks["store"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, resp)
	})
}
