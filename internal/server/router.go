// Package server assembles the catalog's HTTP surface: the per-entity
// resource handlers, the holdings search, and the login endpoints.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/impala-radio/impala/internal/authz"
	"github.com/impala-radio/impala/internal/identity"
	"github.com/impala-radio/impala/internal/repository"
	"github.com/impala-radio/impala/internal/schema"
)

// RouterOptions controls the construction of the catalog HTTP router.
type RouterOptions struct {
	Store    repository.Store
	Sessions *identity.SessionStore

	// Verifier validates external identity tokens. Nil disables token
	// logins; GET /login with local credentials still works.
	Verifier *identity.Verifier

	// LocalUsers backs HTTP basic logins. Nil disables them.
	LocalUsers map[string]*identity.LocalUser

	// LibrarianGroups are the provider groups granted the librarian role.
	LibrarianGroups []string

	CORSOptions *cors.Options
	Middleware  []func(http.Handler) http.Handler
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-Requested-With",
		},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// policyFor returns the access policy for one catalog entity. Tags and
// comments belong to their authors; everything else is librarian-curated.
func policyFor(entity string) authz.Policy {
	switch entity {
	case "holding_tags", "holding_comments":
		return authz.OwnerOrRole{Role: identity.RoleLibrarian}
	default:
		return authz.RoleGated{Role: identity.RoleLibrarian}
	}
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy,
// and every catalog route mounted.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	r.Use(SessionMiddleware(opts.Sessions))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/", handleInfo)
	r.Get("/healthz", handleHealthz)

	r.Get("/login", handleBasicLogin(opts.Sessions, opts.LocalUsers))
	r.Post("/login", handleTokenLogin(opts.Sessions, opts.Verifier, opts.LibrarianGroups))
	r.Post("/logout", handleLogout(opts.Sessions))
	r.Get("/whoami", handleWhoAmI)

	// Static route; chi matches it ahead of /holdings/{id}.
	r.Get("/holdings/search", handleHoldingsSearch(opts.Store))

	for _, s := range schema.Catalog() {
		res := &Resource{
			Schema: s,
			Policy: policyFor(s.Entity),
			Store:  opts.Store,
		}
		r.Get("/"+s.Entity, res.handleList)
		r.Put("/"+s.Entity, res.handleCreate)
		r.Get("/"+s.Entity+"/{id}", res.handleGet)
		r.Patch("/"+s.Entity+"/{id}", res.handleUpdate)
	}

	return r
}

// NewH2CHandler wraps the router with an h2c server so HTTP/2 works over
// cleartext during development.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}
