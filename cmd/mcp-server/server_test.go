package main

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kenng/qv-strapi/pkg/strapi"
)

// TestServerInitialization verifies that the server can initialize without panicking
// This catches jsonschema validation errors and other startup issues
func TestServerInitialization(t *testing.T) {
	client, err := strapi.NewClient(nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	impl := &mcp.Implementation{
		Name:    "strapi",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Server initialization panicked: %v", r)
		}
	}()

	registerTools(server, newStrapiTools(client, nil))
}
