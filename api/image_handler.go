package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	imageFormField        = "image"
	defaultMaxUploadBytes = 10 << 20
	multipartOverhead     = 1 << 20
)

type imageHandler struct {
	responder Responder
	logger    zerolog.Logger
	images    ImageUploader
	maxBytes  int64
}

func newImageHandler(images ImageUploader, maxBytes int64) imageHandler {
	logger := log.With().Str("handlerName", "imageHandler").Logger()
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}

	return imageHandler{
		responder: NewResponder(logger),
		logger:    logger,
		images:    images,
		maxBytes:  maxBytes,
	}
}

// uploadImage stores the multipart "image" file in object storage
// @Summary Upload image
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 200 {object} uploadResponse
// @Failure 400 {object} ErrorResponse "No image sent"
// @Failure 413 {object} ErrorResponse "Image too large"
// @Failure 415 {object} ErrorResponse "Not an image"
// @Failure 502 {object} ErrorResponse "Object storage failure"
// @Router /blog-adm/api/upload-image [post]
func (h imageHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.images == nil {
			h.responder.WriteError(w, errs.NewConfigMissingError("B2_BUCKET"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
		file, header, err := r.FormFile(imageFormField)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(h.maxBytes))
				return
			}
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError(imageFormField))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
		if err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("image", err))
			return
		}
		if int64(len(data)) > h.maxBytes {
			h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(h.maxBytes))
			return
		}

		username, _ := ctxGetUsername(r.Context())
		h.logger.Info().
			Str("originalName", header.Filename).
			Str("declaredType", header.Header.Get("Content-Type")).
			Int("size", len(data)).
			Str("username", username).
			Msg("Image upload requested")

		image, err := h.images.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, uploadResponse{
			Success: true,
			Message: "Image uploaded",
			Image:   image,
		})
	}
}
