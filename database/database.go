package database

import (
	"context"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rpupo63/blog-publisher-backend/models"
	"gorm.io/gorm"
)

type Database struct {
	db          *gorm.DB
	articleRepo *ArticleRepo
	endpoint    Endpoint
}

// New wraps the selected connection. endpoint is the one Connect picked.
func New(db *gorm.DB, table string, endpoint Endpoint) Database {
	return Database{
		db:          db,
		articleRepo: NewArticleRepo(db, table),
		endpoint:    endpoint,
	}
}

func (d Database) ArticleRepo() *ArticleRepo {
	return d.articleRepo
}

func (d Database) Endpoint() Endpoint {
	return d.endpoint
}

// Migrate creates or updates the articles table, including the unique slug index.
func (d Database) Migrate(ctx context.Context) error {
	table := d.articleRepo.Table()
	if table == "" {
		return errs.BadRequest("articles table cannot be empty")
	}
	return d.db.WithContext(ctx).Table(table).AutoMigrate(&models.Article{})
}

// Close releases the connection pool.
func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
