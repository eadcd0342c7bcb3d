package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yousuf/funcmap/internal/config"
)

// Client wraps a connection to a remote MCP server, typically a parser
// exposing a parse tool.
type Client struct {
	session *mcp.ClientSession
	tools   []*mcp.Tool
}

// NewClient connects to the server described by cfg.
func NewClient(ctx context.Context, cfg config.McpServerConfig) (*Client, error) {
	var transport mcp.Transport
	var err error

	switch cfg.Type {
	case "stdio":
		transport, err = createStdioTransport(cfg)
	case "http":
		transport, err = createHttpTransport(cfg)
	case "sse":
		transport, err = createSSETransport(cfg)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return Connect(ctx, transport)
}

// Connect opens a session over an existing transport.
func Connect(ctx context.Context, transport mcp.Transport) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "funcmap-client",
		Version: "1.0.0",
	}, &mcp.ClientOptions{})

	session, err := client.Connect(ctx, transport, &mcp.ClientSessionOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	toolsResult, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	return &Client{
		session: session,
		tools:   toolsResult.Tools,
	}, nil
}

func createStdioTransport(cfg config.McpServerConfig) (mcp.Transport, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)

	if cfg.Cwd != "" {
		cmd.Dir = cfg.Cwd
	}

	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	return &mcp.CommandTransport{Command: cmd}, nil
}

// headerRoundTripper adds the configured headers to every request.
type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range rt.headers {
		req.Header.Set(k, v)
	}
	return rt.next.RoundTrip(req)
}

func httpClient(cfg config.McpServerConfig) *http.Client {
	if len(cfg.Headers) == 0 {
		return nil
	}
	return &http.Client{
		Transport: &headerRoundTripper{
			headers: cfg.Headers,
			next:    http.DefaultTransport,
		},
	}
}

func createHttpTransport(cfg config.McpServerConfig) (mcp.Transport, error) {
	return &mcp.StreamableClientTransport{
		Endpoint:   cfg.URL,
		HTTPClient: httpClient(cfg),
		MaxRetries: 0,
	}, nil
}

func createSSETransport(cfg config.McpServerConfig) (mcp.Transport, error) {
	return &mcp.SSEClientTransport{
		Endpoint:   cfg.URL,
		HTTPClient: httpClient(cfg),
	}, nil
}

// CallTool calls a tool on the server.
func (c *Client) CallTool(ctx context.Context, toolName string, args map[string]any) (*mcp.CallToolResult, error) {
	return c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
}

// HasTool reports whether the server advertised a tool named name.
func (c *Client) HasTool(name string) bool {
	for _, tool := range c.tools {
		if tool.Name == name {
			return true
		}
	}
	return false
}

// Tools returns the tools the server advertised on connect.
func (c *Client) Tools() []*mcp.Tool {
	return c.tools
}

// Close closes the client connection
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
