package httptransport

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinica/internal/platform/middleware"
	"clinica/internal/transport/http/shared"
)

// Registrar is implemented by each area handler. The router owns the
// middleware chain; handlers only mount routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs. DB may be nil when the service
// runs on in-memory stores; the health endpoint reports the difference.
type Deps struct {
	Logger    *slog.Logger
	Validator middleware.TokenValidator
	DB        *sql.DB
	Handlers  []Registrar
}

// NewRouter assembles the full HTTP surface. /healthz and /metrics are
// unauthenticated; everything under /api requires a valid actor token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", handleHealth(deps.DB))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireActor(deps.Validator, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(api)
		}
	})

	return r
}

func handleHealth(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "storage": "memory"}
		if db != nil {
			status["storage"] = "postgres"
			if err := db.PingContext(r.Context()); err != nil {
				status["status"] = "degraded"
				status["storage"] = "unreachable"
				shared.WriteJSON(w, http.StatusServiceUnavailable, status)
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, status)
	}
}
