package database

import (
	"context"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rpupo63/blog-publisher-backend/models"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// DefaultListLimit matches the admin list view.
const DefaultListLimit = 50

type ArticleRepo struct {
	db    *gorm.DB
	table string
}

func NewArticleRepo(db *gorm.DB, table string) *ArticleRepo {
	if table == "" {
		table = models.DefaultArticlesTable
	}
	return &ArticleRepo{db: db, table: table}
}

func (r *ArticleRepo) Table() string {
	return r.table
}

func (r *ArticleRepo) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.table)
}

// SlugExists checks the primary, never a replica, so a just-inserted slug is seen.
func (r *ArticleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.query(ctx).Clauses(dbresolver.Write).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, errs.NewDatabaseError("check slug of", "article", err)
	}
	return count > 0, nil
}

// Add inserts the article; the generated id is written back into it.
func (r *ArticleRepo) Add(ctx context.Context, article *models.Article) error {
	if err := r.query(ctx).Create(article).Error; err != nil {
		return errs.NewDatabaseError("create", "article", err)
	}
	return nil
}

// FindBySlug returns the article with the given slug
func (r *ArticleRepo) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	err := r.query(ctx).Where("slug = ?", slug).First(&article).Error
	if err != nil {
		return nil, errs.NewDatabaseError("find", "article", err)
	}
	return &article, nil
}

// ListRecent returns the newest articles first, without their content.
func (r *ArticleRepo) ListRecent(ctx context.Context, limit int) ([]*models.Article, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var articles []*models.Article
	err := r.query(ctx).
		Omit("content").
		Order("created_at DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "articles", err)
	}
	return articles, nil
}

// Count returns the number of stored articles
func (r *ArticleRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.query(ctx).Count(&total).Error; err != nil {
		return 0, errs.NewDatabaseError("count", "articles", err)
	}
	return total, nil
}

// Ping runs a trivial query against the primary.
func (r *ArticleRepo) Ping(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Clauses(dbresolver.Write).Exec("SELECT 1").Error; err != nil {
		return errs.NewDatabaseError("ping", "database", err)
	}
	return nil
}
