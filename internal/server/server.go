package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/sprite-avatar-mcp/internal/avatar"
	"github.com/ironsheep/sprite-avatar-mcp/internal/config"
	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
	"github.com/ironsheep/sprite-avatar-mcp/internal/store"
	"github.com/ironsheep/sprite-avatar-mcp/internal/version"
)

// ServerName is reported in the initialize handshake.
const ServerName = "sprite-avatar-mcp"

// SessionSubdir holds the wizard session under a directory store, out of
// reach of store_clear.
const SessionSubdir = ".session"

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	pipeline *avatar.Pipeline
	store    store.Store
	sessions store.Store
	logger   hclog.Logger
	now      func() time.Time
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server from cfg. Frames go to a directory store when
// cfg.StoreDir is set and stay in memory otherwise. The session is kept in
// a store of its own so clearing frames never loses it.
func New(cfg config.Config, logger hclog.Logger) (*Server, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	opts, err := cfg.CompositorOptions()
	if err != nil {
		return nil, err
	}
	compositor, err := imaging.NewCompositor(opts)
	if err != nil {
		return nil, err
	}

	var st, sessions store.Store = store.NewMemoryStore(), store.NewMemoryStore()
	if cfg.StoreDir != "" {
		ds, err := store.NewDirStore(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		ss, err := store.NewDirStore(filepath.Join(cfg.StoreDir, SessionSubdir))
		if err != nil {
			return nil, err
		}
		st, sessions = ds, ss
	}
	logger.Named("store").Debug("store ready", "dir", cfg.StoreDir)

	return &Server{
		cache:    imaging.NewImageCache(cfg.LoaderOptions()),
		pipeline: avatar.New(compositor, avatar.WithLogger(logger.Named("pipeline"))),
		store:    st,
		sessions: sessions,
		logger:   logger.Named("server"),
		now:      time.Now,
	}, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve handles newline-delimited requests from r until r is exhausted,
// writing one response per line to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Base64 sprite sheets make for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Trace("request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": version.Version,
			},
		},
	}
}

