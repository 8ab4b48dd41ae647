package api

import (
	"github.com/go-chi/chi/v5"
)

const apiPrefix = "/blog-adm/api"

type rateLimits struct {
	login *ipRateLimiter
	api   *ipRateLimiter
}

// setupAdminRoutes mounts the admin API; every route counts against the API
// limit and everything but login, logout and auth-status needs a session or
// bearer token
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, limits rateLimits) {
	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(HTTPLoggingMiddleware)
		r.Use(limits.api.middleware)

		r.With(limits.login.middleware).Post("/login", handlers.authHandler.login())
		r.Post("/logout", handlers.authHandler.logout())
		r.Get("/auth-status", handlers.authHandler.authStatus())

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Get("/health", handlers.healthHandler.health())
			r.Get("/test-connection", handlers.healthHandler.testConnection())

			r.Post("/upload-image", handlers.imageHandler.uploadImage())

			r.Get("/articles", handlers.articleHandler.listArticles())
			r.Get("/articles/{slug}", handlers.articleHandler.getArticle())
			r.Post("/articles", handlers.articleHandler.createArticle())
		})
	})
}
