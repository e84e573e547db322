package strapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEntryService_Routes(t *testing.T) {
	ctx := context.Background()
	data := map[string]interface{}{"title": "t"}

	tests := []struct {
		name   string
		method string
		path   string
		opts   *RequestOptions
		call   func(s EntryService, result interface{}) error
	}{
		{
			name:   "find",
			method: http.MethodGet,
			path:   "/articles",
			opts:   &RequestOptions{Params: Params{"page": 2}},
			call: func(s EntryService, result interface{}) error {
				return s.Find(ctx, "articles", Params{"page": 2}, result)
			},
		},
		{
			name:   "count",
			method: http.MethodGet,
			path:   "/articles/count",
			opts:   &RequestOptions{Params: Params{"published": true}},
			call: func(s EntryService, result interface{}) error {
				return s.Count(ctx, "articles", Params{"published": true}, result)
			},
		},
		{
			name:   "find by id",
			method: http.MethodGet,
			path:   "/articles/1",
			call: func(s EntryService, result interface{}) error {
				return s.FindByID(ctx, "articles", "1", result)
			},
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/articles",
			opts:   &RequestOptions{Body: data},
			call: func(s EntryService, result interface{}) error {
				return s.Create(ctx, "articles", data, result)
			},
		},
		{
			name:   "update",
			method: http.MethodPut,
			path:   "/articles/1",
			opts:   &RequestOptions{Body: data},
			call: func(s EntryService, result interface{}) error {
				return s.Update(ctx, "articles", "1", data, result)
			},
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			path:   "/articles/1",
			call: func(s EntryService, result interface{}) error {
				return s.Delete(ctx, "articles", "1", result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			client := newMockClient(transport, nil)

			transport.On("Do", mock.Anything, tt.method, tt.path, tt.opts, mock.Anything).
				Return(`{"id":1}`, nil)

			var result map[string]interface{}
			err := tt.call(client.Entries, &result)
			require.NoError(t, err)
			assert.Equal(t, float64(1), result["id"])

			transport.AssertExpectations(t)
		})
	}
}

func TestEntryService_Find_QueryParams(t *testing.T) {
	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/articles", r.URL.Path)
		assert.Equal(t, "page=2", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `[{"id":1}]`)
	})

	var articles []map[string]interface{}
	err := client.Entries.Find(context.Background(), "articles", Params{"page": 2}, &articles)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestEntryService_Find_NestedFilters(t *testing.T) {
	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "hello", q.Get("filters[title][$eq]"))
		assert.Equal(t, "title:asc", q.Get("sort[0]"))
		assert.Equal(t, "createdAt:desc", q.Get("sort[1]"))
		writeJSON(w, http.StatusOK, `[]`)
	})

	err := client.Entries.Find(context.Background(), "articles", Params{
		"filters": Params{"title": Params{"$eq": "hello"}},
		"sort":    []string{"title:asc", "createdAt:desc"},
	}, nil)
	require.NoError(t, err)
}

func TestEntryService_Create_ReturnsBodyUnchanged(t *testing.T) {
	response := `{"id":3,"title":"t","nested":{"tags":["a","b"]},"published_at":null}`

	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/articles", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"title":"t"}`, string(body))

		writeJSON(w, http.StatusOK, response)
	})

	var result json.RawMessage
	err := client.Entries.Create(context.Background(), "articles", map[string]string{"title": "t"}, &result)
	require.NoError(t, err)
	assert.JSONEq(t, response, string(result))
}

func TestEntryService_PropagatesHTTPError(t *testing.T) {
	client, _, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"statusCode":404,"error":"Not Found","message":"Not Found"}`)
	})

	err := client.Entries.FindByID(context.Background(), "articles", "404", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Not Found", err.Error())
}
