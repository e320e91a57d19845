// Package prompts contains MCP prompt implementations for reqmin.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	ImportEnabled bool // powhttp import is configured
	JSONIndent    int
}
