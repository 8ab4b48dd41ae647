package services

import (
	"strings"
	"testing"

	"github.com/rpupo63/blog-publisher-backend/models"
	"github.com/stretchr/testify/assert"
)

func validInput() models.ArticleInput {
	return models.ArticleInput{
		Title:    "Hello World",
		Category: "News",
		Author:   "Ana",
		Content:  "<p>x</p>",
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		input func() models.ArticleInput
		want  []string
	}{
		{
			name:  "valid",
			input: validInput,
		},
		{
			name: "valid with optional fields",
			input: func() models.ArticleInput {
				in := validInput()
				in.CoAuthor = "Bruno"
				in.Summary = strings.Repeat("s", models.MaxSummaryLength)
				in.Featured = true
				in.PrimaryImageURL = "https://img.example.com/a.png"
				return in
			},
		},
		{
			name:  "empty payload lists every required field in order",
			input: func() models.ArticleInput { return models.ArticleInput{} },
			want: []string{
				"title is required",
				"category is required",
				"author is required",
				"content is required",
			},
		},
		{
			name: "empty title only",
			input: func() models.ArticleInput {
				in := validInput()
				in.Title = ""
				return in
			},
			want: []string{"title is required"},
		},
		{
			name: "blank fields count as missing",
			input: func() models.ArticleInput {
				in := validInput()
				in.Author = "   "
				in.Content = "\n\t"
				return in
			},
			want: []string{"author is required", "content is required"},
		},
		{
			name: "title of 255 characters accepted",
			input: func() models.ArticleInput {
				in := validInput()
				in.Title = strings.Repeat("a", 255)
				return in
			},
		},
		{
			name: "title of 256 characters rejected",
			input: func() models.ArticleInput {
				in := validInput()
				in.Title = strings.Repeat("a", 256)
				return in
			},
			want: []string{"title is too long (maximum 255 characters)"},
		},
		{
			name: "length counts characters not bytes",
			input: func() models.ArticleInput {
				in := validInput()
				in.Title = strings.Repeat("é", 255)
				return in
			},
		},
		{
			name: "required before length",
			input: func() models.ArticleInput {
				return models.ArticleInput{
					Title:    strings.Repeat("t", 256),
					Category: strings.Repeat("c", 101),
					CoAuthor: strings.Repeat("b", 101),
					Summary:  strings.Repeat("s", 501),
				}
			},
			want: []string{
				"author is required",
				"content is required",
				"title is too long (maximum 255 characters)",
				"category is too long (maximum 100 characters)",
				"co-author is too long (maximum 100 characters)",
				"summary is too long (maximum 500 characters)",
			},
		},
		{
			name: "author too long",
			input: func() models.ArticleInput {
				in := validInput()
				in.Author = strings.Repeat("a", 101)
				return in
			},
			want: []string{"author is too long (maximum 100 characters)"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Validate(tc.input()))
		})
	}
}
