// Package router arma el árbol de rutas chi con sus middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/hellodid/internal/http/controllers"
	httperrors "github.com/dropDatabas3/hellodid/internal/http/errors"
	mw "github.com/dropDatabas3/hellodid/internal/http/middlewares"
	"github.com/dropDatabas3/hellodid/internal/rate"
)

// Deps contiene todo lo que necesita el router.
type Deps struct {
	Controllers *controllers.Controllers

	CORSOrigins []string
	RateLimiter rate.Limiter // nil = sin rate limit

	// Gatherer para /metrics; nil usa el registry default.
	Metrics prometheus.Gatherer
}

// New crea el handler raíz.
//
// Orden: recover → request id → logging → security headers → CORS → rate limit.
// CORS va en el nivel raíz para que los preflight OPTIONS lleguen antes del 405.
// /readyz, /livez y /metrics no pasan por el rate limit.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, deps)

	r.Group(func(api chi.Router) {
		api.Use(mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.RateLimiter}))
		registerAccessRoutes(api, deps)
		registerIdentityRoutes(api, deps)
		registerCredentialRoutes(api, deps)
	})

	return r
}

func registerHealthRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Health.Health
	r.Get("/readyz", c.Readyz)
	r.Get("/livez", c.Livez)

	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// registerAccessRoutes: protocolo de solicitud y consentimiento.
func registerAccessRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Access.Consent
	r.Post("/requestAccess", c.RequestAccess)
	r.Post("/consent", c.Consent)
	r.Get("/consents/{address}", c.ListByParticipant)
}

func registerIdentityRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Identity.Identity
	r.Post("/register", c.Register)
	r.Get("/identity/registered/{address}", c.IsRegistered)
	r.Get("/profile/{address}", c.Profile)
	r.Get("/signer", c.Signer)
}

func registerCredentialRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Credential.Credential
	r.Post("/issueCredential", c.Issue)
	r.Post("/verifyCredential", c.Verify)
	r.Post("/revokeCredential", c.Revoke)
}
