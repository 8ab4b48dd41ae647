package api

import (
	"context"
	"time"

	"github.com/rpupo63/blog-publisher-backend/models"
	"github.com/rpupo63/blog-publisher-backend/services"
)

type ArticlePublisher interface {
	Publish(ctx context.Context, in models.ArticleInput) (*models.Article, error)
}

type ArticleReader interface {
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Article, error)
	Count(ctx context.Context) (int64, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, originalName, declaredType string, data []byte) (services.Image, error)
	Pinger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the router hands to its handlers.
type Dependencies struct {
	Publisher        ArticlePublisher
	Articles         ArticleReader
	Images           ImageUploader // nil when object storage is not configured
	Database         Pinger
	DatabaseEndpoint string
}

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler    authHandler
	articleHandler articleHandler
	imageHandler   imageHandler
	healthHandler  healthHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string   `json:"error" example:"invalid article"`
	Message string   `json:"message" example:"invalid article: title is required"`
	Status  string   `json:"status" example:"error"`
	Errors  []string `json:"errors,omitempty"`
	Field   string   `json:"field,omitempty" example:"slug"`
	Details string   `json:"details,omitempty" example:"title is required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Username   string    `json:"username"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Connection string    `json:"connection,omitempty"`
}

type authStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Connection    string `json:"connection,omitempty"`
}

// PublishedArticle is the body returned after a successful publish.
type PublishedArticle struct {
	Success         bool      `json:"success"`
	ID              uint64    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Author          string    `json:"author"`
	CoAuthor        *string   `json:"co_author"`
	Summary         *string   `json:"summary"`
	Featured        bool      `json:"featured"`
	PrimaryImageURL *string   `json:"primary_image_url"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	Message         string    `json:"message"`
}

type ArticleCollection struct {
	Articles []*models.Article `json:"articles"`
	Total    int64             `json:"total"`
}

type uploadResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Image   services.Image `json:"image"`
}

type probeResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type connectionReport struct {
	Success    bool                   `json:"success"`
	Connection string                 `json:"connection,omitempty"`
	Checks     map[string]probeResult `json:"checks"`
	Timestamp  time.Time              `json:"timestamp"`
}

type healthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Uptime     string    `json:"uptime"`
	Database   string    `json:"database"`
	Connection string    `json:"connection,omitempty"`
	Session    string    `json:"session,omitempty"`
}
