package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fernwebstudio/siteadmin/internal/admin/service"
	"github.com/fernwebstudio/siteadmin/internal/admin/store"
	"github.com/fernwebstudio/siteadmin/pkg/httpx"
	"github.com/fernwebstudio/siteadmin/pkg/jwtx"
	"github.com/fernwebstudio/siteadmin/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	UserService  *service.UserService
	ResetService *service.ResetService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Identify runs globally: it attaches verified session claims when a
	// bearer token is present and lets the dispatch handler enforce roles
	// per action.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Identify(r.verifier),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerManagement()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerManagement() {
	h := &ManagementHandler{
		Users: r.UserService,
		Reset: r.ResetService,
	}

	// One dispatch endpoint for every management action. Strict IP limit:
	// the public reset actions make it a brute-force target.
	r.Mux.Handle("POST /v1/user-management",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
