package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clearhaven/idgate/internal/gateway/service"
	"github.com/clearhaven/idgate/internal/gateway/store"
	"github.com/clearhaven/idgate/pkg/httpx"
	"github.com/clearhaven/idgate/pkg/jwtx"
	"github.com/clearhaven/idgate/pkg/slogx"

	_ "github.com/clearhaven/idgate/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	DirectoryService *service.DirectoryService
	EnhanceService   *service.EnhanceService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Identity Gateway API
//	@version		0.1.0
//	@description	Gateway between an OAuth2/OIDC identity provider and resource services.
//	@description	Verifies provider-issued access tokens, keeps a local user directory in
//	@description	sync with the provider, and enriches token claims with directory-backed
//	@description	attributes.
//
//	@contact.name				Clearhaven Platform Team
//	@contact.url				https://github.com/clearhaven/idgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Provider-issued JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		EnhanceService: r.EnhanceService,
	}

	// Authenticated identity endpoints - lenient rate limit by user
	secured := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),     // verify JWT (iss/aud/exp)
			httpx.RequireAnyScope("profile:read"), // enforce scopes
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /v1/auth/login/success", secured(http.HandlerFunc(h.HandleLoginSuccess)))
	r.Mux.Handle("GET /v1/auth/me", secured(http.HandlerFunc(h.HandleMe)))
	r.Mux.Handle("GET /v1/auth/token", secured(http.HandlerFunc(h.HandleToken)))

	// Login failure is reachable without a token; rate limit by IP.
	r.Mux.Handle("GET /v1/auth/login/failure",
		httpx.Chain(http.HandlerFunc(h.HandleLoginFailure),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{DirectoryService: r.DirectoryService}

	read := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("directory:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /v1/users/external/{externalID}", read(http.HandlerFunc(h.HandleGetByExternalID)))
	r.Mux.Handle("GET /v1/users/external/{externalID}/exists", read(http.HandlerFunc(h.HandleExists)))
	r.Mux.Handle("GET /v1/users/username/{username}", read(http.HandlerFunc(h.HandleGetByUsername)))

	// Deactivation is an admin write - moderate rate limit
	r.Mux.Handle("POST /v1/users/external/{externalID}/deactivate",
		httpx.Chain(http.HandlerFunc(h.HandleDeactivate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("directory:admin"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health endpoints - public with high limits
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
