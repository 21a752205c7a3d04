package server

import (
	"testing"

	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"sprite_load",
		"sprite_remove_background",
		"sprite_grid_preview",
		"sprite_slice",
		"avatar_render",
		"avatar_export",
		"store_get",
		"store_delete",
		"store_clear",
		"session_save",
		"session_load",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_SourceTools(t *testing.T) {
	sourceTools := []string{
		"sprite_load",
		"sprite_remove_background",
		"sprite_grid_preview",
		"sprite_slice",
		"avatar_render",
		"avatar_export",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range sourceTools {
		t.Run(name, func(t *testing.T) {
			props := toolMap[name].InputSchema["properties"].(map[string]interface{})
			for _, p := range []string{"source", "data"} {
				if _, ok := props[p]; !ok {
					t.Errorf("missing %s property", p)
				}
			}
		})
	}
}

func TestToolDefinitions_Defaults(t *testing.T) {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	props := toolMap["avatar_render"].InputSchema["properties"].(map[string]interface{})

	tests := []struct {
		param string
		want  interface{}
	}{
		{"scale_percent", 100},
		{"stroke", true},
		{"background", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			schema, ok := props[tt.param].(map[string]interface{})
			if !ok {
				t.Fatalf("missing %s", tt.param)
			}
			if schema["default"] != tt.want {
				t.Errorf("default: got %v, want %v", schema["default"], tt.want)
			}
		})
	}
}

func TestToolDefinitions_ScaleMaximum(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})
		schema, ok := props["scale_percent"].(map[string]interface{})
		if !ok {
			continue
		}
		if schema["maximum"] != imaging.MaxScalePercent {
			t.Errorf("%s: scale_percent maximum = %v, want %d", tool.Name, schema["maximum"], imaging.MaxScalePercent)
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
