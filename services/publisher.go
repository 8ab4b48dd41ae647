package services

import (
	"context"
	"strings"
	"time"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rpupo63/blog-publisher-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const (
	defaultInsertAttempts = 5
	defaultSlugProbeLimit = 1000
)

// ArticleStore is the persistence the publisher needs. The unique index on
// slug is the real guarantee; SlugExists only saves failed inserts.
type ArticleStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	// Add inserts the article and fills in its id. A slug conflict must be
	// reported as errs.ErrUniqueConstraintViolation.
	Add(ctx context.Context, article *models.Article) error
}

type Publisher struct {
	store          ArticleStore
	logger         zerolog.Logger
	now            func() time.Time
	insertAttempts int
	slugProbeLimit int
}

type PublisherOption func(*Publisher)

func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithInsertAttempts bounds how many inserts are tried when concurrent
// publishers race for the same slug.
func WithInsertAttempts(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.insertAttempts = n
		}
	}
}

func WithSlugProbeLimit(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.slugProbeLimit = n
		}
	}
}

func NewPublisher(store ArticleStore, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:          store,
		logger:         log.With().Str("component", "publisher").Logger(),
		now:            time.Now,
		insertAttempts: defaultInsertAttempts,
		slugProbeLimit: defaultSlugProbeLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnsureUniqueSlug returns the first free candidate for base and its counter
// (1 for base itself, 2 for base-2, ...).
func (p *Publisher) EnsureUniqueSlug(ctx context.Context, base string) (string, int, error) {
	for n := 1; n <= p.slugProbeLimit; n++ {
		candidate := SlugCandidate(base, n)
		taken, err := p.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", 0, err
		}
		if !taken {
			return candidate, n, nil
		}
	}
	return "", 0, errs.NewSlugExhaustedError(base, p.slugProbeLimit)
}

// Publish validates the payload, reserves a unique slug and stores the article
// as published. Nothing is written when validation fails.
func (p *Publisher) Publish(ctx context.Context, in models.ArticleInput) (*models.Article, error) {
	if violations := Validate(in); len(violations) > 0 {
		p.logger.Warn().Strs("violations", violations).Msg("Article rejected")
		return nil, errs.NewValidationError(violations)
	}

	base := Slugify(in.Title)
	if base == "" {
		base = FallbackSlug
	}

	slug, n, err := p.EnsureUniqueSlug(ctx, base)
	if err != nil {
		return nil, err
	}

	article := p.newArticle(in)
	for attempt := 1; attempt <= p.insertAttempts; attempt++ {
		article.ID = 0
		article.Slug = slug

		err := p.store.Add(ctx, article)
		if err == nil {
			p.logger.Info().
				Uint64("id", article.ID).
				Str("slug", article.Slug).
				Str("category", article.Category).
				Int("contentLength", len(article.Content)).
				Msg("Article published")
			return article, nil
		}
		if !errs.IsUniqueConstraintViolationError(err) {
			p.logger.Error().Err(err).Str("slug", slug).Msg("Failed to store article")
			return nil, err
		}

		p.logger.Warn().Str("slug", slug).Int("attempt", attempt).Msg("Slug taken concurrently, retrying")
		n++
		slug = SlugCandidate(base, n)
	}

	return nil, errs.NewSlugExhaustedError(base, p.insertAttempts)
}

func (p *Publisher) newArticle(in models.ArticleInput) *models.Article {
	now := p.now().UTC()
	return &models.Article{
		Title:           strings.TrimSpace(in.Title),
		Category:        strings.TrimSpace(in.Category),
		Author:          strings.TrimSpace(in.Author),
		CoAuthor:        optional(in.CoAuthor),
		Summary:         optional(in.Summary),
		Featured:        in.Featured,
		PrimaryImageURL: optional(in.PrimaryImageURL),
		Content:         strings.TrimSpace(in.Content),
		Status:          models.StatusPublished,
		CreatedOn:       datatypes.Date(now),
		UpdatedOn:       datatypes.Date(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
