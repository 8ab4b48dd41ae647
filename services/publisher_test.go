package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rpupo63/blog-publisher-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps articles in memory. Slugs listed in raced are reported free
// by SlugExists but rejected by Add, as if another writer inserted them first.
type memStore struct {
	articles  map[string]*models.Article
	raced     map[string]bool
	nextID    uint64
	addCalls  int
	existsErr error
	addErr    error
}

func newMemStore(slugs ...string) *memStore {
	s := &memStore{articles: map[string]*models.Article{}, raced: map[string]bool{}}
	for _, slug := range slugs {
		s.nextID++
		s.articles[slug] = &models.Article{ID: s.nextID, Slug: slug}
	}
	return s
}

func (s *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.articles[slug]
	return ok, nil
}

func (s *memStore) Add(_ context.Context, article *models.Article) error {
	s.addCalls++
	if s.addErr != nil {
		return s.addErr
	}
	if _, ok := s.articles[article.Slug]; ok || s.raced[article.Slug] {
		s.articles[article.Slug] = &models.Article{Slug: article.Slug}
		return errs.NewDatabaseError("create", "article", &pgconn.PgError{Code: "23505", ColumnName: "slug"})
	}
	s.nextID++
	article.ID = s.nextID
	stored := *article
	s.articles[article.Slug] = &stored
	return nil
}

var fixedNow = time.Date(2024, 5, 17, 13, 45, 0, 0, time.UTC)

func newTestPublisher(store ArticleStore, opts ...PublisherOption) *Publisher {
	opts = append([]PublisherOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewPublisher(store, opts...)
}

func TestPublishHelloWorld(t *testing.T) {
	store := newMemStore()
	p := newTestPublisher(store)

	article, err := p.Publish(context.Background(), models.ArticleInput{
		Title:    "Hello World",
		Category: "News",
		Author:   "Ana",
		Content:  "<p>x</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", article.Slug)
	assert.Equal(t, models.StatusPublished, article.Status)
	assert.NotZero(t, article.ID)
	assert.Equal(t, fixedNow, article.CreatedAt)
	assert.Equal(t, fixedNow, article.UpdatedAt)
	assert.Nil(t, article.CoAuthor)
	assert.Nil(t, article.Summary)
	assert.Nil(t, article.PrimaryImageURL)
	assert.Equal(t, 1, store.addCalls)
	assert.Contains(t, store.articles, "hello-world")
}

func TestPublishCollisions(t *testing.T) {
	store := newMemStore("example")
	p := newTestPublisher(store)
	in := validInput()
	in.Title = "Example"

	second, err := p.Publish(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "example-2", second.Slug)

	third, err := p.Publish(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "example-3", third.Slug)
	assert.NotEqual(t, second.ID, third.ID)
}

func TestPublishRetriesConcurrentInsert(t *testing.T) {
	store := newMemStore()
	store.raced["hello-world"] = true
	store.raced["hello-world-2"] = true
	p := newTestPublisher(store)

	article, err := p.Publish(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "hello-world-3", article.Slug)
	assert.Equal(t, 3, store.addCalls)
}

func TestPublishInsertRetryExhausted(t *testing.T) {
	store := newMemStore()
	for _, slug := range []string{"hello-world", "hello-world-2", "hello-world-3"} {
		store.raced[slug] = true
	}
	p := newTestPublisher(store, WithInsertAttempts(3))

	article, err := p.Publish(context.Background(), validInput())
	assert.Nil(t, article)
	assert.True(t, errs.IsSlugExhaustedError(err))
	assert.Equal(t, 3, store.addCalls)
}

func TestPublishSlugProbeLimit(t *testing.T) {
	store := newMemStore("hello-world", "hello-world-2", "hello-world-3")
	p := newTestPublisher(store, WithSlugProbeLimit(3))

	_, err := p.Publish(context.Background(), validInput())
	assert.True(t, errs.IsSlugExhaustedError(err))
	assert.Zero(t, store.addCalls)
}

func TestPublishValidationFailureDoesNotInsert(t *testing.T) {
	store := newMemStore()
	p := newTestPublisher(store)
	in := validInput()
	in.Title = ""

	article, err := p.Publish(context.Background(), in)
	assert.Nil(t, article)
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))
	assert.Equal(t, []string{"title is required"}, errs.Violations(err))
	assert.Equal(t, "invalid article: title is required", err.Error())
	assert.Zero(t, store.addCalls)
	assert.Empty(t, store.articles)
}

func TestPublishStorageFailure(t *testing.T) {
	testCases := []struct {
		name    string
		store   func() *memStore
		wantErr error
		adds    int
	}{
		{
			name: "lookup fails",
			store: func() *memStore {
				s := newMemStore()
				s.existsErr = errs.NewDatabaseError("check slug of", "article", errors.New("connection refused"))
				return s
			},
			wantErr: errs.ErrDatabaseConnection,
		},
		{
			name: "insert fails without retry",
			store: func() *memStore {
				s := newMemStore()
				s.addErr = errs.NewDatabaseError("create", "article", errors.New("value too long"))
				return s
			},
			wantErr: errs.ErrDatabaseQuery,
			adds:    1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := tc.store()
			article, err := newTestPublisher(store).Publish(context.Background(), validInput())
			assert.Nil(t, article)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.adds, store.addCalls)
		})
	}
}

func TestPublishFallbackSlug(t *testing.T) {
	store := newMemStore("article")
	in := validInput()
	in.Title = "日本語"

	article, err := newTestPublisher(store).Publish(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "article-2", article.Slug)
}

func TestPublishTrimsAndKeepsOptionalFields(t *testing.T) {
	store := newMemStore()
	in := models.ArticleInput{
		Title:           "  Spaced Title  ",
		Category:        " Tech ",
		Author:          "Ana",
		CoAuthor:        " Bruno ",
		Summary:         "   ",
		Featured:        true,
		PrimaryImageURL: "https://img.example.com/a.png",
		Content:         "<p>x</p>",
	}

	article, err := newTestPublisher(store).Publish(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Spaced Title", article.Title)
	assert.Equal(t, "spaced-title", article.Slug)
	assert.Equal(t, "Tech", article.Category)
	require.NotNil(t, article.CoAuthor)
	assert.Equal(t, "Bruno", *article.CoAuthor)
	assert.Nil(t, article.Summary)
	assert.True(t, article.Featured)
	require.NotNil(t, article.PrimaryImageURL)
	assert.Equal(t, "https://img.example.com/a.png", *article.PrimaryImageURL)
}

func TestEnsureUniqueSlug(t *testing.T) {
	p := newTestPublisher(newMemStore("example", "example-2"))

	slug, n, err := p.EnsureUniqueSlug(context.Background(), "example")
	require.NoError(t, err)
	assert.Equal(t, "example-3", slug)
	assert.Equal(t, 3, n)

	slug, n, err = p.EnsureUniqueSlug(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", slug)
	assert.Equal(t, 1, n)
}
