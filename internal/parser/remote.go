package parser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yousuf/funcmap/internal/funcmap"
)

// DefaultTool is the tool name called on remote parser servers.
const DefaultTool = "parse"

// ToolCaller calls a tool on an MCP server. *client.Client implements it.
type ToolCaller interface {
	CallTool(ctx context.Context, toolName string, args map[string]any) (*mcp.CallToolResult, error)
}

// MCPParser delegates parsing to a tool on an MCP server. The tool takes
// {source, dialect} and answers with {functions} either as structured
// content or as JSON text.
type MCPParser struct {
	caller ToolCaller
	tool   string
}

// NewMCPParser returns a parser calling tool through caller. An empty tool
// name means DefaultTool.
func NewMCPParser(caller ToolCaller, tool string) *MCPParser {
	if tool == "" {
		tool = DefaultTool
	}
	return &MCPParser{caller: caller, tool: tool}
}

// Parse calls the remote parse tool.
func (p *MCPParser) Parse(ctx context.Context, source string, dialect Dialect) ([]funcmap.FunctionDesc, error) {
	if !dialect.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	result, err := p.caller.CallTool(ctx, p.tool, map[string]any{
		"source":  source,
		"dialect": string(dialect),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", p.tool, err)
	}

	payload, err := resultPayload(result)
	if err != nil {
		return nil, err
	}
	if result.IsError {
		return nil, fmt.Errorf("parse failed: %s", payload)
	}
	return decodeResponse(payload)
}

// resultPayload extracts the JSON reply from a tool result.
func resultPayload(result *mcp.CallToolResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("empty tool result")
	}
	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal structured content: %w", err)
		}
		return data, nil
	}
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			return []byte(text.Text), nil
		}
	}
	return nil, fmt.Errorf("tool result has no text content")
}
