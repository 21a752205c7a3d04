// Package server implements the MCP (Model Context Protocol) server for the
// sprite sheet avatar pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes the pipeline
// stages through the MCP protocol, so an assistant can walk a user through
// turning one generated 2x2 sprite sheet into four captioned avatar frames.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Source Operations:
//   - sprite_load: Load a sheet and report its size and cell size
//   - sprite_remove_background: Clear the border-connected background
//   - sprite_grid_preview: Mark where the sheet will be cut
//   - sprite_slice: Cut the sheet into four scaled frames
//
// Avatar Operations:
//   - avatar_render: Full pipeline, frames returned inline
//   - avatar_export: Full pipeline, frames saved to the store
//
// Store Operations:
//   - store_get, store_delete, store_clear
//
// Session Operations:
//   - session_save, session_load: Wizard progress between steps
//
// Every tool that reads a sheet accepts either "source" (file path or
// http(s) URL) or "data" (base64 image bytes).
//
// # Image Caching
//
// Sheets loaded by source are decoded once and cached for the lifetime of
// the process, so trying another background mode or scale never re-fetches
// the image.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// avatar_export reports frames that failed to encode or store in the
// "errors" field of a successful result, as long as at least one frame
// was stored.
package server
