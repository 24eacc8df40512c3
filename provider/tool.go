package provider

import "context"

// ToolDefinition describes a tool as declared by its provider during the
// handshake. InputSchema is a JSON schema of type "object" for the tool's
// arguments.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToolInfo is a tool definition annotated with its owning provider.
type ToolInfo struct {
	ToolDefinition
	Provider string `json:"provider"`
}

// LaunchSpec describes how to start a tool provider subprocess.
type LaunchSpec struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Dir     string            `json:"dir,omitempty"`
}

// Client is the transport a Manager uses to talk to a single provider.
// StdioClient is the production implementation.
type Client interface {
	// Initialize performs the protocol handshake.
	Initialize(ctx context.Context) error
	// ListTools returns the tools the provider exposes.
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	// CallTool invokes a tool and returns its text result.
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	// Close terminates the provider.
	Close() error
}
