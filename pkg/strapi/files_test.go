package strapi

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFileService_Find(t *testing.T) {
	transport := new(MockTransport)
	client := newMockClient(transport, nil)

	transport.On("Do", mock.Anything, http.MethodGet, "/upload/files", &RequestOptions{Params: Params{"_limit": 10}}, mock.Anything).
		Return(`[{"id":1,"name":"a.png"}]`, nil)

	var files []map[string]interface{}
	err := client.Files.Find(context.Background(), Params{"_limit": 10}, &files)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.png", files[0]["name"])

	transport.AssertExpectations(t)
}

func TestFileService_Get(t *testing.T) {
	transport := new(MockTransport)
	client := newMockClient(transport, nil)

	transport.On("Do", mock.Anything, http.MethodGet, "/upload/files/5", (*RequestOptions)(nil), mock.Anything).
		Return(`{"id":5}`, nil)

	var file map[string]interface{}
	require.NoError(t, client.Files.Get(context.Background(), "5", &file))
	assert.Equal(t, float64(5), file["id"])

	transport.AssertExpectations(t)
}

func TestFileService_Search_DecodesQuery(t *testing.T) {
	transport := new(MockTransport)
	client := newMockClient(transport, nil)

	transport.On("Do", mock.Anything, http.MethodGet, "/upload/search/cat pics", (*RequestOptions)(nil), mock.Anything).
		Return(`[]`, nil)

	var files []interface{}
	require.NoError(t, client.Files.Search(context.Background(), "cat%20pics", &files))

	transport.AssertExpectations(t)
}

func TestFileService_Search_MalformedQuery(t *testing.T) {
	transport := new(MockTransport)
	client := newMockClient(transport, nil)

	err := client.Files.Search(context.Background(), "100%", nil)
	require.Error(t, err)

	transport.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFileService_Search_OverHTTP(t *testing.T) {
	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/search/summer holiday", r.URL.Path)
		writeJSON(w, http.StatusOK, `[]`)
	})

	require.NoError(t, client.Files.Search(context.Background(), "summer%20holiday", nil))
}

func TestFileService_Upload(t *testing.T) {
	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "api::article.article", r.FormValue("ref"))
		assert.Equal(t, "3", r.FormValue("refId"))
		assert.Equal(t, "cover", r.FormValue("field"))

		files := r.MultipartForm.File["files"]
		if assert.Len(t, files, 2) {
			assert.Equal(t, "a.txt", files[0].Filename)
			assert.Equal(t, "text/plain", files[0].Header.Get("Content-Type"))
			assert.Equal(t, "b.bin", files[1].Filename)
			assert.Equal(t, "application/octet-stream", files[1].Header.Get("Content-Type"))

			f, err := files[0].Open()
			if assert.NoError(t, err) {
				content, _ := io.ReadAll(f)
				assert.Equal(t, "hello", string(content))
				_ = f.Close()
			}
		}

		writeJSON(w, http.StatusOK, `[{"id":10},{"id":11}]`)
	})

	form, err := NewUploadForm(
		map[string]string{"ref": "api::article.article", "refId": "3", "field": "cover"},
		UploadFile{Name: "dir/a.txt", Reader: strings.NewReader("hello"), ContentType: "text/plain"},
		UploadFile{Name: "b.bin", Reader: strings.NewReader("\x00\x01")},
	)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(form.ContentType(), "multipart/form-data; boundary="))

	var uploaded []map[string]interface{}
	err = client.Files.Upload(context.Background(), form.Reader(), form.Options(), &uploaded)
	require.NoError(t, err)
	assert.Len(t, uploaded, 2)
}

func TestFileService_Upload_NilBody(t *testing.T) {
	client := newMockClient(new(MockTransport), nil)

	err := client.Files.Upload(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrMissingParams)
}

func TestNewUploadForm_Errors(t *testing.T) {
	_, err := NewUploadForm(nil)
	assert.ErrorIs(t, err, ErrMissingParams)

	_, err = NewUploadForm(nil, UploadFile{Name: "empty.txt"})
	assert.ErrorIs(t, err, ErrMissingParams)
}

func TestUploadForm_ReaderIsRepeatable(t *testing.T) {
	form, err := NewUploadForm(nil, UploadFile{Name: "a.txt", Reader: strings.NewReader("hello")})
	require.NoError(t, err)

	first, err := io.ReadAll(form.Reader())
	require.NoError(t, err)
	second, err := io.ReadAll(form.Reader())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), `filename="a.txt"`)
	assert.Equal(t, form.ContentType(), form.Options().Headers["Content-Type"])
}
