// Package mcp provides an MCP (Model Context Protocol) server adapter for partnerdocs.
// It lets AI assistants assemble partner context and ask questions about
// contracts and payout reports.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
