package strapi

import (
	"context"
	"net/http"
)

// entryService implements the EntryService interface
type entryService struct {
	client *Client
}

// Find lists entries matching params
func (s *entryService) Find(ctx context.Context, entity string, params Params, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodGet, "/"+entity, &RequestOptions{Params: params}, result, entityTags(entity))
}

// Count counts entries matching params
func (s *entryService) Count(ctx context.Context, entity string, params Params, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodGet, "/"+entity+"/count", &RequestOptions{Params: params}, result, entityTags(entity))
}

// FindByID retrieves a single entry
func (s *entryService) FindByID(ctx context.Context, entity, id string, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodGet, "/"+entity+"/"+id, nil, result, entityTags(entity))
}

// Create creates an entry from data
func (s *entryService) Create(ctx context.Context, entity string, data interface{}, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodPost, "/"+entity, &RequestOptions{Body: data}, result, entityTags(entity))
}

// Update replaces the fields of an entry present in data
func (s *entryService) Update(ctx context.Context, entity, id string, data interface{}, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodPut, "/"+entity+"/"+id, &RequestOptions{Body: data}, result, entityTags(entity))
}

// Delete deletes an entry
func (s *entryService) Delete(ctx context.Context, entity, id string, result interface{}) error {
	return s.client.dispatch(ctx, http.MethodDelete, "/"+entity+"/"+id, nil, result, entityTags(entity))
}

func entityTags(entity string) map[string]string {
	return map[string]string{"strapi.entity": entity}
}
