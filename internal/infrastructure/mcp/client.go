// Package mcp exposes tools of Model Context Protocol servers as ToolPorts.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

// NameSeparator joins server and tool names, e.g. aws_pricing__get_pricing.
const NameSeparator = "__"

type ServerConfig struct {
	Name    string
	Command string
	Args    []string
	Env     []string
}

// AWSServers returns the pricing and documentation servers launched through uvx.
func AWSServers(profile, region string) []ServerConfig {
	env := []string{
		"FASTMCP_LOG_LEVEL=ERROR",
		"AWS_PROFILE=" + profile,
		"AWS_REGION=" + region,
	}
	return []ServerConfig{
		{Name: "aws_pricing", Command: "uvx", Args: []string{"awslabs.aws-pricing-mcp-server@latest"}, Env: env},
		{Name: "aws_docs", Command: "uvx", Args: []string{"awslabs.aws-documentation-mcp-server@latest"}, Env: env},
	}
}

type toolClient interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type connector func(ctx context.Context, cfg ServerConfig) (toolClient, error)

type Manager struct {
	mu      sync.Mutex
	clients map[string]toolClient
	tools   []output.ToolPort
	logger  output.LoggerPort
	connect connector
}

func NewManager(logger output.LoggerPort) *Manager {
	return &Manager{
		clients: make(map[string]toolClient),
		logger:  logger,
		connect: connectStdio,
	}
}

func connectStdio(ctx context.Context, cfg ServerConfig) (toolClient, error) {
	env := append(os.Environ(), cfg.Env...)
	c, err := client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", cfg.Command, err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "sow-reviewer", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}

	return c, nil
}

// Start connects every server and collects its tools. A server that fails to
// start is logged and skipped; the error is returned only when none started.
func (m *Manager) Start(ctx context.Context, servers []ServerConfig) error {
	var errs []error

	for _, cfg := range servers {
		if err := m.startOne(ctx, cfg); err != nil {
			m.logger.Warn("MCP server unavailable", "server", cfg.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", cfg.Name, err))
		}
	}

	if len(servers) > 0 && len(errs) == len(servers) {
		return errors.Join(errs...)
	}
	return nil
}

func (m *Manager) startOne(ctx context.Context, cfg ServerConfig) error {
	c, err := m.connect(ctx, cfg)
	if err != nil {
		return err
	}

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("list tools: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[cfg.Name] = c
	for _, t := range listed.Tools {
		m.tools = append(m.tools, &Tool{server: cfg.Name, tool: t, client: c})
	}

	m.logger.Info("MCP server connected", "server", cfg.Name, "tools", len(listed.Tools))
	return nil
}

// Tools returns the collected tools sorted by name.
func (m *Manager) Tools() []output.ToolPort {
	m.mu.Lock()
	defer m.mu.Unlock()

	tools := make([]output.ToolPort, len(m.tools))
	copy(tools, m.tools)
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

// ToolNames lists the names of the collected tools.
func (m *Manager) ToolNames() []entity.ToolName {
	tools := m.Tools()
	names := make([]entity.ToolName, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name())
	}
	return names
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, c := range m.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		delete(m.clients, name)
	}
	m.tools = nil
	return errors.Join(errs...)
}

var _ output.ToolPort = (*Tool)(nil)

type Tool struct {
	server string
	tool   mcp.Tool
	client toolClient
}

func (t *Tool) Name() entity.ToolName {
	return entity.ToolName(t.server + NameSeparator + t.tool.Name)
}

func (t *Tool) Description() string {
	return fmt.Sprintf("[%s] %s", t.server, t.tool.Description)
}

func (t *Tool) Parameters() map[string]interface{} {
	return inputSchema(t.tool)
}

func (t *Tool) Execute(ctx context.Context, arguments string) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = t.tool.Name
	req.Params.Arguments = args

	result, err := t.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", t.Name(), err)
	}

	text := resultText(result)
	if result.IsError {
		return "", fmt.Errorf("%s failed: %s", t.Name(), text)
	}
	return text, nil
}

func inputSchema(tool mcp.Tool) map[string]interface{} {
	if len(tool.RawInputSchema) > 0 {
		var raw map[string]interface{}
		if err := json.Unmarshal(tool.RawInputSchema, &raw); err == nil {
			return raw
		}
	}

	properties := tool.InputSchema.Properties
	if properties == nil {
		properties = map[string]any{}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	return schema
}

func resultText(result *mcp.CallToolResult) string {
	parts := make([]string, 0, len(result.Content))
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}
