package strapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/kenng/qv-strapi/internal/graphql"
)

// GraphQL posts q to the GraphQL endpoint and decodes the response, data and
// errors alike, into result
func (c *Client) GraphQL(ctx context.Context, q *GraphQLQuery, result interface{}) error {
	if q == nil {
		return errors.Wrap(ErrMissingParams, "graphql")
	}

	operation := q.OperationName
	if operation == "" {
		operation = graphql.OperationName(q.Query)
	}

	c.debug("Executing GraphQL query", "operation", operation)

	return c.dispatch(ctx, http.MethodPost, "/graphql", &RequestOptions{Body: q}, result, map[string]string{
		"graphql.operation": operation,
	})
}
