package main

import (
	"context"
	"io/fs"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/kenng/qv-strapi/pkg/strapi"
)

func main() {
	// stdout carries the protocol, so logs go to stderr
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "strapi-mcp").Logger()

	// Initialize the content API client
	client, err := strapi.NewClient(&strapi.ClientOptions{
		BaseURL:   os.Getenv("STRAPI_URL"),
		Token:     os.Getenv("STRAPI_TOKEN"),
		Logger:    strapi.NewZerologLogger(logger),
		SentryDSN: os.Getenv("STRAPI_SENTRY_DSN"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize client")
	}
	defer client.Close()

	ctx := context.Background()

	// Sign in when credentials are given instead of a token
	if identifier := os.Getenv("STRAPI_IDENTIFIER"); identifier != "" && client.Token() == "" {
		if _, err := client.Auth.Login(ctx, &strapi.LoginParams{
			Identifier: identifier,
			Password:   os.Getenv("STRAPI_PASSWORD"),
		}); err != nil {
			logger.Fatal().Err(err).Msg("Failed to sign in")
		}
	}

	var queries fs.FS
	if dir := os.Getenv("STRAPI_QUERIES_DIR"); dir != "" {
		queries = os.DirFS(dir)
	}

	impl := &mcp.Implementation{
		Name:    "strapi",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	registerTools(server, newStrapiTools(client, queries))

	logger.Info().Str("url", client.BaseURL()).Msg("Serving over stdio")

	// Run server over stdio transport
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Fatal().Err(err).Msg("Server error")
	}
}

func registerTools(server *mcp.Server, tools *strapiTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_entries",
		Description: "List entries of a collection, optionally filtered, sorted and paginated with a bracket-notation query string.",
	}, tools.FindEntries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "count_entries",
		Description: "Count entries of a collection matching an optional bracket-notation query string.",
	}, tools.CountEntries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_entry",
		Description: "Get a single entry of a collection by id.",
	}, tools.GetEntry)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_entry",
		Description: "Create an entry in a collection. Returns the created entry.",
	}, tools.CreateEntry)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_entry",
		Description: "Update fields of an entry. Returns the updated entry.",
	}, tools.UpdateEntry)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_entry",
		Description: "Delete an entry. Returns the deleted entry.",
	}, tools.DeleteEntry)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_files",
		Description: "List uploaded media files, optionally filtered with a bracket-notation query string.",
	}, tools.FindFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_file",
		Description: "Get an uploaded media file by id.",
	}, tools.GetFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_files",
		Description: "Search uploaded media files by keywords.",
	}, tools.SearchFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "graphql",
		Description: "Run a GraphQL document, given inline or by the name of a stored document. The response, data and errors, is passed through unchanged.",
	}, tools.GraphQL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_queries",
		Description: "List the names of stored GraphQL documents.",
	}, tools.ListQueries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "whoami",
		Description: "Show the user the server is signed in as.",
	}, tools.Whoami)
}
