package testutil

import (
	"net/http"
	"time"

	"clinica/internal/actor"
	"clinica/internal/platform/middleware"
	"clinica/internal/principal"
	"clinica/pkg/requestcontext"
)

// WithActor attaches an authenticated actor to the request context,
// simulating what the token middleware does for authenticated requests.
func WithActor(req *http.Request, act *actor.Context) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), act))
}

// WithRequestTime pins the request's logical time so derived timestamps are
// deterministic in tests.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}

// NewActor builds an ACTIVE admin actor context with sane defaults.
func NewActor(id string) *actor.Context {
	return &actor.Context{
		ID:          id,
		DisplayName: "Test Actor",
		Email:       id + "@clinica.local",
		Role:        principal.RoleAdmin,
		LogicalTime: time.Now(),
	}
}
