package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// createJSONResponse marshals data as the tool's text content.
func createJSONResponse(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

// createErrorResponse reports a tool failure inside the result body with
// IsError set — errors must be visible to the model so it can self-correct,
// not raised as a transport-level error.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	resp, merr := createJSONResponse(map[string]any{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	if merr != nil {
		return nil, merr
	}
	resp.IsError = true
	return resp, nil
}
