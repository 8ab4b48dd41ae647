package models

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultArticlesTable is used when ARTICLES_TABLE is not configured.
const DefaultArticlesTable = "blog_articles"

// StatusPublished is the only state an article is ever created in.
const StatusPublished = "published"

// Field limits, in characters.
const (
	MaxTitleLength    = 255
	MaxCategoryLength = 100
	MaxAuthorLength   = 100
	MaxCoAuthorLength = 100
	MaxSummaryLength  = 500
)

// Article represents a published blog article
type Article struct {
	ID              uint64         `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Title           string         `json:"title" gorm:"column:title;type:varchar(255);not null"`
	Slug            string         `json:"slug" gorm:"column:slug;type:varchar(300);not null;uniqueIndex:idx_blog_articles_slug"`
	Category        string         `json:"category" gorm:"column:category;type:varchar(100);not null"`
	Author          string         `json:"author" gorm:"column:author;type:varchar(100);not null"`
	CoAuthor        *string        `json:"co_author" gorm:"column:co_author;type:varchar(100)"`
	Summary         *string        `json:"summary" gorm:"column:summary;type:varchar(500)"`
	Featured        bool           `json:"featured" gorm:"column:featured;not null"`
	PrimaryImageURL *string        `json:"primary_image_url" gorm:"column:primary_image_url;type:text"`
	Content         string         `json:"content,omitempty" gorm:"column:content;type:text;not null"`
	Status          string         `json:"status" gorm:"column:status;type:varchar(20);not null;index"`
	CreatedOn       datatypes.Date `json:"created_on" gorm:"column:created_on;not null"`
	UpdatedOn       datatypes.Date `json:"updated_on" gorm:"column:updated_on;not null"`
	CreatedAt       time.Time      `json:"created_at" gorm:"column:created_at;not null;index"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"column:updated_at;not null"`
}

func (Article) TableName() string {
	return DefaultArticlesTable
}

// ArticleInput is the payload submitted by the admin UI. Content is already
// rendered markup built from the editor's blocks.
type ArticleInput struct {
	Title           string `json:"title"`
	Category        string `json:"category"`
	Author          string `json:"author"`
	CoAuthor        string `json:"co_author,omitempty"`
	Summary         string `json:"summary,omitempty"`
	Featured        bool   `json:"featured,omitempty"`
	PrimaryImageURL string `json:"primary_image_url,omitempty"`
	Content         string `json:"content"`
}
