// Package mcpservice exposes the prompt composer and the frog gallery as a
// Model Context Protocol server.
//
// Tools:
//
//	compose_frog_prompt   a fresh prompt plus the entries drawn for it
//	list_frogs            a page of published frogs, newest first
//
// Prompts:
//
//	frog                  one user message holding a fresh prompt
//
// Resources:
//
//	fr0gg://categories    the category lists in use (subscribable)
//	fr0gg://frogs/{id}    one published frog
//
// Serve it over stdio with Run and mcp.StdioTransport, or over streamable
// HTTP with HTTPHandler.
package mcpservice
