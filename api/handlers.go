package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/rpupo63/blog-publisher-backend/errs"
)

const maxJSONBodyBytes int64 = 10 << 20

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, auth *adminAuth, maxUploadBytes int64, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		authHandler:    newAuthHandler(auth, deps.DatabaseEndpoint),
		articleHandler: newArticleHandler(deps.Publisher, deps.Articles),
		imageHandler:   newImageHandler(deps.Images, maxUploadBytes),
		healthHandler:  newHealthHandler(deps.Database, deps.Images, deps.DatabaseEndpoint, startupTime),
	}
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, payloadType string, dst any) error {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return errs.NewUnsupportedMediaTypeError(contentType, "application/json")
		}
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errs.NewMaxBodySizeExceededError(maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errs.NewMalformedPayloadError(payloadType, err)
		default:
			return errs.NewInvalidJSONError(err)
		}
	}
	return nil
}
