package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rpupo63/blog-publisher-backend/config"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(c map[string]string, deps Dependencies) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	router, err := newRouter(deps, withConfig(c), withStartupTime(startupTime))
	if err != nil {
		return Server{}, err
	}

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 180),
		WriteTimeout: config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180),
		IdleTimeout:  config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) (*chi.Mux, error) {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	if router.startupTime.IsZero() {
		router.startupTime = time.Now()
	}

	auth, err := newAdminAuth(AuthConfigFromMap(router.config))
	if err != nil {
		return nil, err
	}

	maxUploadBytes := int64(config.GetInt(router.config, "MAX_UPLOAD_MB", 10)) << 20
	handlers := initializeHandlers(deps, auth, maxUploadBytes, router.startupTime)

	window := time.Duration(config.GetInt(router.config, "RATE_LIMIT_WINDOW_MINUTES", 15)) * time.Minute
	limiterResponder := NewResponder(log.With().Str("handlerName", "rateLimiter").Logger())
	limits := rateLimits{
		login: newIPRateLimiter("login", config.GetInt(router.config, "LOGIN_RATE_LIMIT", 5), window, limiterResponder),
		api:   newIPRateLimiter("API", config.GetInt(router.config, "API_RATE_LIMIT", 100), window, limiterResponder),
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	chiRouter.Use(middleware.SetHeader("X-Frame-Options", "SAMEORIGIN"))
	chiRouter.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))
	chiRouter.Use(middleware.Compress(5))
	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.GetStrings(router.config, "ACCEPTED_ORIGINS"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	setupAdminRoutes(chiRouter, handlers, newAuthMiddleware(auth), limits)

	return chiRouter, nil
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
