package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/blog-publisher-backend/models"
)

var validate = validator.New()

type fieldRule struct {
	value   string
	tag     string
	message string
}

// Validate checks an article payload and returns every violation. Required
// fields are checked first, then lengths, so the order of the messages is
// stable for a given payload. Lengths count characters, not bytes.
func Validate(in models.ArticleInput) []string {
	rules := []fieldRule{
		{strings.TrimSpace(in.Title), "required", "title is required"},
		{strings.TrimSpace(in.Category), "required", "category is required"},
		{strings.TrimSpace(in.Author), "required", "author is required"},
		{strings.TrimSpace(in.Content), "required", "content is required"},
		{in.Title, maxTag(models.MaxTitleLength, false), tooLong("title", models.MaxTitleLength)},
		{in.Category, maxTag(models.MaxCategoryLength, false), tooLong("category", models.MaxCategoryLength)},
		{in.Author, maxTag(models.MaxAuthorLength, false), tooLong("author", models.MaxAuthorLength)},
		{in.CoAuthor, maxTag(models.MaxCoAuthorLength, true), tooLong("co-author", models.MaxCoAuthorLength)},
		{in.Summary, maxTag(models.MaxSummaryLength, true), tooLong("summary", models.MaxSummaryLength)},
	}

	var violations []string
	for _, rule := range rules {
		if err := validate.Var(rule.value, rule.tag); err != nil {
			violations = append(violations, rule.message)
		}
	}
	return violations
}

func maxTag(limit int, optional bool) string {
	if optional {
		return fmt.Sprintf("omitempty,max=%d", limit)
	}
	return fmt.Sprintf("max=%d", limit)
}

func tooLong(field string, limit int) string {
	return fmt.Sprintf("%s is too long (maximum %d characters)", field, limit)
}
