package server

import (
	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Shared property schemas.
var (
	sourceProperty = map[string]interface{}{
		"type":        "string",
		"description": "Sprite sheet location: an absolute file path or an http(s) URL",
	}
	dataProperty = map[string]interface{}{
		"type":        "string",
		"description": "Base64-encoded sprite sheet, used instead of source",
	}
	backgroundProperty = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"none", "light", "dark", "light-background", "dark-background"},
		"description": "Background removal mode (default: none)",
		"default":     "none",
	}
	scaleProperty = map[string]interface{}{
		"type":        "integer",
		"description": "Output frame size as a percentage of the source cell (default: 100)",
		"default":     100,
		"minimum":     1,
		"maximum":     imaging.MaxScalePercent,
	}
	captionProperty = map[string]interface{}{
		"type":        "string",
		"description": "Text drawn at the bottom of every frame (default: none)",
	}
	strokeProperty = map[string]interface{}{
		"type":        "boolean",
		"description": "Draw an outline around the caption (default: true)",
		"default":     true,
	}
	keyProperty = map[string]interface{}{
		"type":        "string",
		"description": "Store key, e.g. a filename returned by avatar_export",
	}
)

func sourceSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"source": sourceProperty,
		"data":   dataProperty,
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
}

func renderSchema() map[string]interface{} {
	return sourceSchema(map[string]interface{}{
		"background":    backgroundProperty,
		"scale_percent": scaleProperty,
		"caption":       captionProperty,
		"stroke":        strokeProperty,
	})
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Source Operations
		{
			Name:        "sprite_load",
			Description: "Load a 2x2 sprite sheet and return its dimensions, format, encoded size and the size of each avatar cell, plus a suggested background mode and the dominant colours. The decoded sheet is cached for later calls.",
			InputSchema: sourceSchema(nil),
		},
		{
			Name:        "sprite_remove_background",
			Description: "Make the sheet background transparent by flood-filling from the border, and return the result as a base64-encoded PNG. Only pixels connected to the edge are cleared.",
			InputSchema: sourceSchema(map[string]interface{}{
				"background": backgroundProperty,
			}),
		},
		{
			Name:        "sprite_grid_preview",
			Description: "Draw the 2x2 slicing boundaries (and optional frame numbers) on the sheet and return it as a base64-encoded PNG, to check where frames will be cut.",
			InputSchema: sourceSchema(map[string]interface{}{
				"color": map[string]interface{}{
					"type":        "string",
					"description": "Line color in hex (default: #ff0000)",
					"default":     "#ff0000",
				},
				"labels": map[string]interface{}{
					"type":        "boolean",
					"description": "Number each frame in its top-left corner (default: true)",
					"default":     true,
				},
			}),
		},
		{
			Name:        "sprite_slice",
			Description: "Remove the background and cut the sheet into its four avatar frames (row-major: top-left, top-right, bottom-left, bottom-right), scaled with nearest-neighbour sampling.",
			InputSchema: sourceSchema(map[string]interface{}{
				"background":    backgroundProperty,
				"scale_percent": scaleProperty,
			}),
		},

		// Avatar Operations
		{
			Name:        "avatar_render",
			Description: "Run the full pipeline (background removal, slicing, caption) and return the four finished frames as base64-encoded PNGs with their export filenames.",
			InputSchema: renderSchema(),
		},
		{
			Name:        "avatar_export",
			Description: "Run the full pipeline and save the four frames to the avatar store. Returns the stored keys and any frames that failed.",
			InputSchema: renderSchema(),
		},

		// Store Operations
		{
			Name:        "store_get",
			Description: "Fetch a stored frame (or other blob) as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"key": keyProperty,
				},
				"required": []string{"key"},
			},
		},
		{
			Name:        "store_delete",
			Description: "Delete one key from the avatar store. Deleting a missing key succeeds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"key": keyProperty,
				},
				"required": []string{"key"},
			},
		},
		{
			Name:        "store_clear",
			Description: "Remove everything from the avatar store, including the saved session.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Session Operations
		{
			Name:        "session_save",
			Description: "Save wizard progress: the sprite sheet URL and the chosen parameters. Omitted fields keep their saved values.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source_url":    sourceProperty,
					"background":    backgroundProperty,
					"scale_percent": scaleProperty,
					"caption":       captionProperty,
					"stroke":        strokeProperty,
				},
			},
		},
		{
			Name:        "session_load",
			Description: "Load saved wizard progress. Returns default parameters when nothing has been saved.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
