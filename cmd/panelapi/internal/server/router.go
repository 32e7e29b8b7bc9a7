package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Infinity2209/user/cmd/panelapi/internal/auth"
	panelmiddleware "github.com/Infinity2209/user/cmd/panelapi/internal/middleware"
	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/Infinity2209/user/cmd/panelapi/internal/resource"
	"github.com/Infinity2209/user/pkg/access"
)

// RouterOptions controls the construction of the panel HTTP router.
// Store and Registry are required; everything else is optional.
type RouterOptions struct {
	Store    repository.DocumentStore
	Registry *resource.Registry

	// Accounts and Tokens enable /auth/login, /auth/logout and /auth/whoami.
	Accounts repository.AccountRepository
	Tokens   *auth.TokenIssuer

	// Gate is consulted for every resource request when AuthEnabled is set.
	Gate        *access.Gate
	AuthEnabled bool

	Logger        logrus.FieldLogger
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the permissive policy the panel front end expects.
// Preflights pass through so every route answers with the full method set.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:             300,
		OptionsPassthrough: true,
	}
}

// preflight answers OPTIONS on the non-resource routes.
func preflight(w http.ResponseWriter, _ *http.Request) {
	setCORSHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, the CORS policy,
// optional authentication and the resource handlers mounted.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(panelmiddleware.NewRequestLogger(log))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	if opts.Tokens != nil {
		authn, err := panelmiddleware.NewAuthnMiddleware(panelmiddleware.AuthnDependencies{
			Tokens: opts.Tokens,
			Logger: log,
		})
		if err != nil {
			return nil, err
		}
		r.Use(authn)
	}

	if opts.AuthEnabled {
		authz, err := panelmiddleware.NewAuthzMiddleware(panelmiddleware.AuthzDependencies{
			Gate:   opts.Gate,
			Kinds:  opts.Registry.Kinds(),
			Logger: log,
		})
		if err != nil {
			return nil, err
		}
		r.Use(authz)
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)
	r.Options("/health", preflight)

	if opts.Tokens != nil && opts.Accounts != nil {
		r.Post("/auth/login", HandleLogin(opts.Accounts, opts.Tokens, log.WithField("component", "auth")))
		r.Post("/auth/logout", HandleLogout(opts.Tokens, log.WithField("component", "auth")))
		r.Get("/auth/whoami", HandleWhoAmI(opts.Gate))
		for _, path := range []string{"/auth/login", "/auth/logout", "/auth/whoami"} {
			r.Options(path, preflight)
		}
	}

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	handlers := NewResourceHandlers(opts.Store, opts.Registry, log.WithField("component", "resource"))
	MountResourceRoutes(r, handlers)

	return r, nil
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over cleartext.
func NewH2CHandler(opts RouterOptions) (http.Handler, error) {
	router, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}
	return h2c.NewHandler(router, &http2.Server{}), nil
}
