package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/blog-adm/api/upload-image", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	testCases := []struct {
		name        string
		field       string
		contentType string
		data        []byte
		uploadErr   error
		wantStatus  int
	}{
		{name: "uploaded", field: "image", contentType: "image/png", data: []byte("png bytes"), wantStatus: http.StatusOK},
		{name: "wrong field", field: "file", contentType: "image/png", data: []byte("png bytes"), wantStatus: http.StatusBadRequest},
		{name: "not an image", field: "image", contentType: "application/pdf", data: []byte("%PDF-1.4"), wantStatus: http.StatusUnsupportedMediaType},
		{name: "too large", field: "image", contentType: "image/png", data: bytes.Repeat([]byte("x"), 1<<20+1), wantStatus: http.StatusRequestEntityTooLarge},
		{
			name:        "storage failure",
			field:       "image",
			contentType: "image/png",
			data:        []byte("png bytes"),
			uploadErr:   errs.NewObjectStoreError("upload image", errors.New("AccessDenied")),
			wantStatus:  http.StatusBadGateway,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, map[string]string{"MAX_UPLOAD_MB": "1"})
			s.images.err = tc.uploadErr
			token, _ := s.login(t)

			rec := s.do(authorized(multipartRequest(t, tc.field, "Cover.png", tc.contentType, tc.data), token))
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantStatus != http.StatusOK {
				assert.Empty(t, s.images.uploaded)
				return
			}

			var resp uploadResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, "https://blog-images.example.com/key.png", resp.Image.URL)
			assert.Equal(t, int64(len(tc.data)), resp.Image.Size)
			assert.Equal(t, []string{"Cover.png"}, s.images.uploaded)
		})
	}
}

func TestUploadImageWithoutStorage(t *testing.T) {
	articles := newMemArticles()
	router, err := newRouter(Dependencies{
		Articles: articles,
		Database: fakePinger{},
	}, withConfig(testConfig(nil)))
	require.NoError(t, err)
	s := &testServer{router: router, articles: articles}
	token, _ := s.login(t)

	rec := s.do(authorized(multipartRequest(t, "image", "a.png", "image/png", []byte("png")), token))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "B2_BUCKET", decodeError(t, rec).Field)
}
