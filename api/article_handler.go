package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/blog-publisher-backend/database"
	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rpupo63/blog-publisher-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type articleHandler struct {
	responder Responder
	logger    zerolog.Logger
	publisher ArticlePublisher
	articles  ArticleReader
}

func newArticleHandler(publisher ArticlePublisher, articles ArticleReader) articleHandler {
	logger := log.With().Str("handlerName", "articleHandler").Logger()

	return articleHandler{
		responder: NewResponder(logger),
		logger:    logger,
		publisher: publisher,
		articles:  articles,
	}
}

// listArticles returns the newest articles without their content
// @Summary List articles
// @Tags Articles
// @Produce json
// @Success 200 {object} ArticleCollection
// @Failure 500 {object} ErrorResponse
// @Router /blog-adm/api/articles [get]
func (h articleHandler) listArticles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := h.articles.ListRecent(r.Context(), database.DefaultListLimit)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		total, err := h.articles.Count(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("Unable to count articles, using page size")
			total = int64(len(articles))
		}

		if articles == nil {
			articles = []*models.Article{}
		}
		h.responder.WriteJSON(w, ArticleCollection{Articles: articles, Total: total})
	}
}

// getArticle returns a single article by slug
// @Summary Get article
// @Tags Articles
// @Produce json
// @Param slug path string true "Article slug"
// @Success 200 {object} models.Article
// @Failure 404 {object} ErrorResponse
// @Router /blog-adm/api/articles/{slug} [get]
func (h articleHandler) getArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing slug"))
			return
		}

		article, err := h.articles.FindBySlug(r.Context(), slug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, article)
	}
}

// createArticle validates and publishes an article
// @Summary Publish article
// @Tags Articles
// @Accept json
// @Produce json
// @Param article body models.ArticleInput true "Article"
// @Success 201 {object} PublishedArticle
// @Failure 400 {object} ErrorResponse "Validation failed; errors lists every violated rule"
// @Failure 409 {object} ErrorResponse "No free slug could be reserved"
// @Failure 500 {object} ErrorResponse
// @Router /blog-adm/api/articles [post]
func (h articleHandler) createArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.ArticleInput
		if err := decodeJSON(w, r, "article", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		username, _ := ctxGetUsername(r.Context())
		h.logger.Info().
			Str("username", username).
			Str("title", in.Title).
			Int("contentLength", len(in.Content)).
			Msg("Publishing article")

		article, err := h.publisher.Publish(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, PublishedArticle{
			Success:         true,
			ID:              article.ID,
			Slug:            article.Slug,
			Title:           article.Title,
			Category:        article.Category,
			Author:          article.Author,
			CoAuthor:        article.CoAuthor,
			Summary:         article.Summary,
			Featured:        article.Featured,
			PrimaryImageURL: article.PrimaryImageURL,
			Status:          article.Status,
			CreatedAt:       article.CreatedAt,
			Message:         "Article published",
		})
	}
}
