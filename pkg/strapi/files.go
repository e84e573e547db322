package strapi

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// fileService implements the FileService interface
type fileService struct {
	client *Client
}

// Find lists files matching params
func (s *fileService) Find(ctx context.Context, params Params, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodGet, "/upload/files", &RequestOptions{Params: params}, result, nil)
}

// Get retrieves a single file
func (s *fileService) Get(ctx context.Context, id string, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodGet, "/upload/files/"+id, nil, result, nil)
}

// Search finds files by keywords. The query is URL-decoded before it is placed
// in the path, so already-encoded input is decoded once.
func (s *fileService) Search(ctx context.Context, query string, result interface{}) error {
	decoded, err := url.PathUnescape(query)
	if err != nil {
		return errors.Wrap(err, "failed to decode search query")
	}
	return s.client.dispatch(ctx, http.MethodGet, "/upload/search/"+decoded, nil, result, nil)
}

// Upload posts a multipart body. opts carries the Content-Type header with the
// multipart boundary.
func (s *fileService) Upload(ctx context.Context, body io.Reader, opts *RequestOptions, result interface{}) error {
	if body == nil {
		return errors.Wrap(ErrMissingParams, "upload")
	}

	reqOpts := &RequestOptions{}
	if opts != nil {
		*reqOpts = *opts
	}
	reqOpts.Body = body

	return s.client.dispatch(ctx, http.MethodPost, "/upload", reqOpts, result, nil)
}
