package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chatgate/chatgate/internal/model"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireString extracts a required string argument from the tool request.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// getObjectSliceArg extracts a []map[string]interface{} argument from the tool request.
// Returns nil if the key is not present or not the expected type.
func getObjectSliceArg(request mcp.CallToolRequest, key string) []map[string]interface{} {
	args := request.GetArguments()
	if args == nil {
		return nil
	}
	raw, ok := args[key]
	if !ok {
		return nil
	}
	slice, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	result := make([]map[string]interface{}, 0, len(slice))
	for _, item := range slice {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil
		}
		result = append(result, m)
	}
	return result
}

// messagesArg converts the "messages" argument into chat messages. A role
// or content that is not a string is reported rather than coerced.
func messagesArg(request mcp.CallToolRequest) ([]model.Message, error) {
	raw := getObjectSliceArg(request, "messages")
	if raw == nil {
		return nil, fmt.Errorf("missing required parameter %q (array of {role, content} objects)", "messages")
	}
	msgs := make([]model.Message, 0, len(raw))
	for i, m := range raw {
		role, ok := m["role"].(string)
		if !ok {
			return nil, fmt.Errorf("messages[%d].role must be a string", i)
		}
		content, ok := m["content"].(string)
		if !ok && m["content"] != nil {
			return nil, fmt.Errorf("messages[%d].content must be a string", i)
		}
		msgs = append(msgs, model.Message{Role: role, Content: content})
	}
	return msgs, nil
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}
