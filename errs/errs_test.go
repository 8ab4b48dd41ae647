package errs

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewDatabaseError(t *testing.T) {
	testCases := []struct {
		name       string
		cause      error
		wantStatus int
		wantErr    error
		wantField  string
	}{
		{
			name:       "unique violation from postgres",
			cause:      &pgconn.PgError{Code: "23505", ColumnName: "slug"},
			wantStatus: http.StatusConflict,
			wantErr:    ErrUniqueConstraintViolation,
			wantField:  "slug",
		},
		{
			name:       "wrapped unique violation without column",
			cause:      fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_blog_articles_slug"}),
			wantStatus: http.StatusConflict,
			wantErr:    ErrUniqueConstraintViolation,
			wantField:  "slug",
		},
		{
			name:       "gorm duplicated key",
			cause:      gorm.ErrDuplicatedKey,
			wantStatus: http.StatusConflict,
			wantErr:    ErrUniqueConstraintViolation,
			wantField:  "slug",
		},
		{
			name:       "record not found",
			cause:      gorm.ErrRecordNotFound,
			wantStatus: http.StatusNotFound,
			wantErr:    ErrNotFound,
		},
		{
			name:       "bad connection",
			cause:      driver.ErrBadConn,
			wantStatus: http.StatusServiceUnavailable,
			wantErr:    ErrDatabaseConnection,
		},
		{
			name:       "other postgres error",
			cause:      &pgconn.PgError{Code: "22001", Message: "value too long"},
			wantStatus: http.StatusInternalServerError,
			wantErr:    ErrDatabaseQuery,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewDatabaseError("create", "article", tc.cause)
			assert.Equal(t, tc.wantStatus, err.StatusCode)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantField, err.Field)
			assert.Equal(t, tc.cause, err.Cause)
		})
	}
}

func TestValidationError(t *testing.T) {
	violations := []string{"title is required", "content is required"}
	err := NewValidationError(violations)

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "invalid article: title is required, content is required", err.Error())
	assert.Equal(t, violations, Violations(fmt.Errorf("publish: %w", err)))
	assert.Nil(t, Violations(errors.New("plain")))
}

func TestGetFullError(t *testing.T) {
	inner := NewDatabaseError("create", "article", errors.New("boom"))
	outer := NewInternalErrorWithCause("publish failed", inner)

	assert.Equal(t, "publish failed -> database query failed: Failed to create article -> boom", outer.GetFullError())
}

func TestSentinels(t *testing.T) {
	assert.True(t, IsUnauthorized(Unauthorized))
	assert.True(t, IsRateLimitError(NewRateLimitError("login", 0)))
	assert.True(t, IsSlugExhaustedError(NewSlugExhaustedError("example", 5)))
	assert.True(t, IsNotFound(NewNotFound("article")))
	assert.False(t, IsConflict(NewSlugExhaustedError("example", 5)))
	assert.True(t, IsMalformedPayloadError(NewMalformedPayloadError("JSON", errors.New("EOF"))))
	assert.True(t, IsMaxBodySizeExceededError(NewMaxBodySizeExceededError(10)))
	assert.True(t, IsInvalidCredentialsError(NewInvalidCredentialsError()))
	assert.False(t, IsInvalidCredentialsError(NewInvalidTokenError()))
}
