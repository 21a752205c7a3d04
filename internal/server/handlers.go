package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/sprite-avatar-mcp/internal/avatar"
	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sprite_load", "avatar_export").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads the sprite sheet from the cache as needed
//  4. Runs the pipeline stages or store operation
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Source Operations
	case "sprite_load":
		return s.handleSpriteLoad(ctx, args)
	case "sprite_remove_background":
		return s.handleSpriteRemoveBackground(ctx, args)
	case "sprite_grid_preview":
		return s.handleSpriteGridPreview(ctx, args)
	case "sprite_slice":
		return s.handleSpriteSlice(ctx, args)

	// Avatar Operations
	case "avatar_render":
		return s.handleAvatarRender(ctx, args)
	case "avatar_export":
		return s.handleAvatarExport(ctx, args)

	// Store Operations
	case "store_get":
		return s.handleStoreGet(ctx, args)
	case "store_delete":
		return s.handleStoreDelete(ctx, args)
	case "store_clear":
		return s.handleStoreClear(ctx)

	// Session Operations
	case "session_save":
		return s.handleSessionSave(ctx, args)
	case "session_load":
		return s.handleSessionLoad(ctx)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating absent arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Shared argument handling ===

type sourceArgs struct {
	Source string `json:"source"`
	Data   string `json:"data"`
}

func (a sourceArgs) blob() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data is not valid base64: %v", imaging.ErrInvalidBitmap, err)
	}
	return data, nil
}

// loadSource resolves the sprite sheet named by a, preferring inline data.
func (s *Server) loadSource(ctx context.Context, a sourceArgs) (imaging.Bitmap, error) {
	if a.Data != "" {
		data, err := a.blob()
		if err != nil {
			return imaging.Bitmap{}, err
		}
		return s.cache.LoadBytes(data)
	}
	if a.Source == "" {
		return imaging.Bitmap{}, fmt.Errorf("either source or data is required")
	}
	return s.cache.Load(ctx, a.Source)
}

type renderArgs struct {
	sourceArgs
	Background   string `json:"background"`
	ScalePercent int    `json:"scale_percent"`
	Caption      string `json:"caption"`
	Stroke       *bool  `json:"stroke"`
}

// params applies defaults: scale 0 means 100 and a missing stroke means on.
func (a renderArgs) params() (avatar.Params, error) {
	p := avatar.DefaultParams()
	mode, err := imaging.ParseBackgroundMode(a.Background)
	if err != nil {
		return p, err
	}
	p.Background = mode
	if a.ScalePercent != 0 {
		p.ScalePercent = a.ScalePercent
	}
	p.Caption = a.Caption
	if a.Stroke != nil {
		p.Stroke = *a.Stroke
	}
	return p, p.Validate()
}

// FrameImage is one frame returned inline to the client.
type FrameImage struct {
	Index       int    `json:"index"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Filename    string `json:"filename,omitempty"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func encodeFrame(index int, b imaging.Bitmap) (FrameImage, error) {
	data, err := imaging.EncodePNG(b)
	if err != nil {
		return FrameImage{}, err
	}
	return FrameImage{
		Index:       index,
		Width:       b.Width,
		Height:      b.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    imaging.PNGMimeType,
	}, nil
}

// === Source Operation Handlers ===

func (s *Server) handleSpriteLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Data != "" {
		data, err := a.blob()
		if err != nil {
			return nil, err
		}
		return s.cache.InfoBytes(data)
	}
	if a.Source == "" {
		return nil, fmt.Errorf("either source or data is required")
	}
	return s.cache.Info(ctx, a.Source)
}

type removeBackgroundArgs struct {
	sourceArgs
	Background string `json:"background"`
}

func (s *Server) handleSpriteRemoveBackground(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a removeBackgroundArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := imaging.ParseBackgroundMode(a.Background)
	if err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.sourceArgs)
	if err != nil {
		return nil, err
	}
	sheet, err := s.pipeline.Extract(ctx, src, mode)
	if err != nil {
		return nil, err
	}
	frame, err := encodeFrame(0, sheet)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"background":   mode,
		"width":        frame.Width,
		"height":       frame.Height,
		"image_base64": frame.ImageBase64,
		"mime_type":    frame.MimeType,
	}, nil
}

type gridPreviewArgs struct {
	sourceArgs
	Color  string `json:"color"`
	Labels *bool  `json:"labels"`
}

func (s *Server) handleSpriteGridPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a gridPreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	lineColor := imaging.DefaultGridColor
	if a.Color != "" {
		c, err := imaging.ParseHexColor(a.Color)
		if err != nil {
			return nil, err
		}
		lineColor = c
	}
	labels := a.Labels == nil || *a.Labels

	src, err := s.loadSource(ctx, a.sourceArgs)
	if err != nil {
		return nil, err
	}
	preview, err := imaging.GridOverlay(src, imaging.AvatarGrid, lineColor, labels)
	if err != nil {
		return nil, err
	}
	frame, err := encodeFrame(0, preview)
	if err != nil {
		return nil, err
	}
	fw, fh := imaging.AvatarGrid.FrameSize(src.Width, src.Height)
	return map[string]interface{}{
		"width":        frame.Width,
		"height":       frame.Height,
		"frame_width":  fw,
		"frame_height": fh,
		"image_base64": frame.ImageBase64,
		"mime_type":    frame.MimeType,
	}, nil
}

type sliceArgs struct {
	sourceArgs
	Background   string `json:"background"`
	ScalePercent int    `json:"scale_percent"`
}

func (s *Server) handleSpriteSlice(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sliceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	params, err := renderArgs{Background: a.Background, ScalePercent: a.ScalePercent}.params()
	if err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.sourceArgs)
	if err != nil {
		return nil, err
	}
	frames, err := s.pipeline.Slice(ctx, src, params)
	if err != nil {
		return nil, err
	}

	out := make([]FrameImage, 0, len(frames))
	for i, f := range frames {
		fi, err := encodeFrame(i, f)
		if err != nil {
			return nil, err
		}
		out = append(out, fi)
	}
	return map[string]interface{}{
		"scale_percent": params.ScalePercent,
		"frames":        out,
	}, nil
}

// === Avatar Operation Handlers ===

func (s *Server) handleAvatarRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	params, err := a.params()
	if err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.sourceArgs)
	if err != nil {
		return nil, err
	}
	rendered, err := s.pipeline.Run(ctx, src, params)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]FrameImage, 0, len(rendered))
	for _, rf := range rendered {
		fi, err := encodeFrame(rf.Index, rf.Bitmap)
		if err != nil {
			return nil, err
		}
		fi.Filename = imaging.FrameFilename(rf.Index, now)
		out = append(out, fi)
	}
	return map[string]interface{}{
		"params": params,
		"frames": out,
	}, nil
}

func (s *Server) handleAvatarExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	params, err := a.params()
	if err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.sourceArgs)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Render(ctx, src, params, s.store)
	if result == nil {
		return nil, err
	}
	if len(result.Frames) == 0 {
		return nil, fmt.Errorf("no frames were exported: %w", err)
	}
	// Partial failures are reported in result.Errors.
	return result, nil
}
