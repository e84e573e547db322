package main

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kenng/qv-strapi/internal/graphql"
	"github.com/kenng/qv-strapi/internal/query"
	"github.com/kenng/qv-strapi/pkg/strapi"
)

// strapiTools holds the content API client and implements all tool handlers
type strapiTools struct {
	client  *strapi.Client
	queries *graphql.Loader
}

func newStrapiTools(client *strapi.Client, queries fs.FS) *strapiTools {
	t := &strapiTools{client: client}
	if queries != nil {
		t.queries = graphql.NewLoader(queries)
	}
	return t
}

// Output wraps a response body passed through from the API
type Output struct {
	Data any `json:"data" jsonschema:"Response body as returned by the API"`
}

// FindEntriesInput lists entries of a collection
type FindEntriesInput struct {
	Entity string `json:"entity" jsonschema:"Collection path segment, e.g. articles"`
	Query  string `json:"query,omitempty" jsonschema:"Query string in bracket notation, e.g. filters[title][$eq]=x&sort=title:asc (optional)"`
}

func (t *strapiTools) FindEntries(ctx context.Context, req *mcp.CallToolRequest, input FindEntriesInput) (*mcp.CallToolResult, Output, error) {
	params, err := parseQuery(input.Query)
	if err != nil {
		return nil, Output{}, err
	}

	var out Output
	if err := t.client.Entries.Find(ctx, input.Entity, params, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to find %s: %w", input.Entity, err)
	}
	return nil, out, nil
}

func (t *strapiTools) CountEntries(ctx context.Context, req *mcp.CallToolRequest, input FindEntriesInput) (*mcp.CallToolResult, Output, error) {
	params, err := parseQuery(input.Query)
	if err != nil {
		return nil, Output{}, err
	}

	var out Output
	if err := t.client.Entries.Count(ctx, input.Entity, params, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to count %s: %w", input.Entity, err)
	}
	return nil, out, nil
}

// EntryInput addresses one entry
type EntryInput struct {
	Entity string `json:"entity" jsonschema:"Collection path segment, e.g. articles"`
	ID     string `json:"id" jsonschema:"Entry id"`
}

func (t *strapiTools) GetEntry(ctx context.Context, req *mcp.CallToolRequest, input EntryInput) (*mcp.CallToolResult, Output, error) {
	var out Output
	if err := t.client.Entries.FindByID(ctx, input.Entity, input.ID, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to get %s %s: %w", input.Entity, input.ID, err)
	}
	return nil, out, nil
}

func (t *strapiTools) DeleteEntry(ctx context.Context, req *mcp.CallToolRequest, input EntryInput) (*mcp.CallToolResult, Output, error) {
	var out Output
	if err := t.client.Entries.Delete(ctx, input.Entity, input.ID, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to delete %s %s: %w", input.Entity, input.ID, err)
	}
	return nil, out, nil
}

// CreateEntryInput creates an entry
type CreateEntryInput struct {
	Entity string         `json:"entity" jsonschema:"Collection path segment, e.g. articles"`
	Data   map[string]any `json:"data" jsonschema:"Fields of the new entry"`
}

func (t *strapiTools) CreateEntry(ctx context.Context, req *mcp.CallToolRequest, input CreateEntryInput) (*mcp.CallToolResult, Output, error) {
	var out Output
	if err := t.client.Entries.Create(ctx, input.Entity, input.Data, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to create %s: %w", input.Entity, err)
	}
	return nil, out, nil
}

// UpdateEntryInput updates an entry
type UpdateEntryInput struct {
	Entity string         `json:"entity" jsonschema:"Collection path segment, e.g. articles"`
	ID     string         `json:"id" jsonschema:"Entry id"`
	Data   map[string]any `json:"data" jsonschema:"Fields to change"`
}

func (t *strapiTools) UpdateEntry(ctx context.Context, req *mcp.CallToolRequest, input UpdateEntryInput) (*mcp.CallToolResult, Output, error) {
	var out Output
	if err := t.client.Entries.Update(ctx, input.Entity, input.ID, input.Data, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to update %s %s: %w", input.Entity, input.ID, err)
	}
	return nil, out, nil
}

// FindFilesInput lists uploaded files
type FindFilesInput struct {
	Query string `json:"query,omitempty" jsonschema:"Query string in bracket notation (optional)"`
}

func (t *strapiTools) FindFiles(ctx context.Context, req *mcp.CallToolRequest, input FindFilesInput) (*mcp.CallToolResult, Output, error) {
	params, err := parseQuery(input.Query)
	if err != nil {
		return nil, Output{}, err
	}

	var out Output
	if err := t.client.Files.Find(ctx, params, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to find files: %w", err)
	}
	return nil, out, nil
}

// GetFileInput addresses one uploaded file
type GetFileInput struct {
	ID string `json:"id" jsonschema:"File id"`
}

func (t *strapiTools) GetFile(ctx context.Context, req *mcp.CallToolRequest, input GetFileInput) (*mcp.CallToolResult, Output, error) {
	var out Output
	if err := t.client.Files.Get(ctx, input.ID, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to get file %s: %w", input.ID, err)
	}
	return nil, out, nil
}

// SearchFilesInput searches uploaded files
type SearchFilesInput struct {
	Query string `json:"query" jsonschema:"Keywords to search for"`
}

func (t *strapiTools) SearchFiles(ctx context.Context, req *mcp.CallToolRequest, input SearchFilesInput) (*mcp.CallToolResult, Output, error) {
	var out Output
	if err := t.client.Files.Search(ctx, input.Query, &out.Data); err != nil {
		return nil, Output{}, fmt.Errorf("failed to search files: %w", err)
	}
	return nil, out, nil
}

// GraphQLInput runs a GraphQL document
type GraphQLInput struct {
	Query         string         `json:"query,omitempty" jsonschema:"GraphQL document (required unless name is set)"`
	Name          string         `json:"name,omitempty" jsonschema:"Name of a stored .graphql document to run instead of query (optional)"`
	Variables     map[string]any `json:"variables,omitempty" jsonschema:"Variables of the document (optional)"`
	OperationName string         `json:"operationName,omitempty" jsonschema:"Operation to run when the document has several (optional)"`
}

func (t *strapiTools) GraphQL(ctx context.Context, req *mcp.CallToolRequest, input GraphQLInput) (*mcp.CallToolResult, Output, error) {
	doc := input.Query
	if input.Name != "" {
		if t.queries == nil {
			return nil, Output{}, fmt.Errorf("no query directory configured")
		}
		loaded, err := t.queries.Load(input.Name)
		if err != nil {
			return nil, Output{}, err
		}
		doc = loaded
	}
	if doc == "" {
		return nil, Output{}, fmt.Errorf("query or name is required")
	}

	var out Output
	err := t.client.GraphQL(ctx, &strapi.GraphQLQuery{
		Query:         doc,
		Variables:     input.Variables,
		OperationName: input.OperationName,
	}, &out.Data)
	if err != nil {
		return nil, Output{}, fmt.Errorf("graphql request failed: %w", err)
	}
	return nil, out, nil
}

// ListQueriesInput takes no arguments
type ListQueriesInput struct{}

// ListQueriesOutput names the stored GraphQL documents
type ListQueriesOutput struct {
	Names []string `json:"names" jsonschema:"Names usable as the name argument of graphql"`
}

func (t *strapiTools) ListQueries(ctx context.Context, req *mcp.CallToolRequest, input ListQueriesInput) (*mcp.CallToolResult, ListQueriesOutput, error) {
	if t.queries == nil {
		return nil, ListQueriesOutput{Names: []string{}}, nil
	}

	names, err := t.queries.List()
	if err != nil {
		return nil, ListQueriesOutput{}, err
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListQueriesOutput{Names: names}, nil
}

// WhoamiInput takes no arguments
type WhoamiInput struct{}

// WhoamiOutput is the signed-in user
type WhoamiOutput struct {
	User      map[string]any `json:"user,omitempty" jsonschema:"Profile of the signed-in user"`
	SignedIn  bool           `json:"signedIn" jsonschema:"Whether the server holds a valid session"`
	ExpiresAt string         `json:"expiresAt,omitempty" jsonschema:"Token expiry in RFC 3339 format, when known"`
}

func (t *strapiTools) Whoami(ctx context.Context, req *mcp.CallToolRequest, input WhoamiInput) (*mcp.CallToolResult, WhoamiOutput, error) {
	user := t.client.Auth.FetchUser(ctx)
	if user == nil {
		return nil, WhoamiOutput{}, nil
	}

	out := WhoamiOutput{User: user, SignedIn: true}
	if claims, err := t.client.TokenClaims(); err == nil && !claims.ExpiresAt.IsZero() {
		out.ExpiresAt = claims.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return nil, out, nil
}

func parseQuery(raw string) (strapi.Params, error) {
	params, err := query.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return params, nil
}
