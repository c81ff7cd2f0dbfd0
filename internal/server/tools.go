package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the drum photo",
	}
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by drum_detect_tongues",
	}
}

func indexProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Candidate index (0-based, as listed by drum_detect_tongues)",
	}
}

func layoutIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Layout ID returned by drum_save_layout or drum_list_layouts",
	}
}

func sessionOnlySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": sessionProperty(),
		},
		"required": []string{"session_id"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Photo
		{
			Name:        "drum_load",
			Description: "Load a slit drum photo and report its size and format. Large photos are downscaled; all coordinates returned by other tools refer to the downscaled working image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "drum_edge_map",
			Description: "Render the edge map tongue detection works from (grayscale, 3x3 blur, Sobel magnitude) as a PNG. Useful to judge lighting before detecting.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"binary": map[string]interface{}{
						"type":        "boolean",
						"description": "Show only pixels above the edge threshold (white) instead of raw magnitudes. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},

		// Detection
		{
			Name:        "drum_detect_tongues",
			Description: "Detect tongue candidates on a drum photo and start a calibration session. Candidates are sorted by confidence. When nothing is found an evenly spaced placeholder ring is returned instead and used_fallback is true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"expected_count": map[string]interface{}{
						"type":        "integer",
						"description": "How many tongues the drum has. Default 8",
						"default":     8,
						"minimum":     1,
					},
				},
				"required": []string{"path"},
			},
		},

		// Selection
		{
			Name:        "drum_select_tongue",
			Description: "Add a candidate to the end of the session's playing order. Selecting an already selected or unknown index changes nothing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"index":      indexProperty(),
				},
				"required": []string{"session_id", "index"},
			},
		},
		{
			Name:        "drum_deselect_tongue",
			Description: "Remove a candidate from the playing order. The remaining tongues are renumbered 1..n without gaps.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"index":      indexProperty(),
				},
				"required": []string{"session_id", "index"},
			},
		},
		{
			Name:        "drum_clear_selection",
			Description: "Clear the session's playing order.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "drum_selection",
			Description: "Show the session's current playing order.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "drum_suggest_order",
			Description: "Suggest a playing order: candidates sorted clockwise from 12 o'clock around their common center. By default the suggestion replaces the current selection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"apply": map[string]interface{}{
						"type":        "boolean",
						"description": "Replace the selection with the suggested order. Default true",
						"default":     true,
					},
				},
				"required": []string{"session_id"},
			},
		},

		// Presentation
		{
			Name:        "drum_overlay",
			Description: "Draw the session's candidates on the photo. Selected tongues are outlined thicker and numbered in playing order; placeholder boxes are amber.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "drum_crop_tongue",
			Description: "Crop one candidate from the photo with some surrounding context and report its mean color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"index":      indexProperty(),
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels of context around the box. Default 8",
						"default":     8,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"session_id", "index"},
			},
		},
		{
			Name:        "drum_end_session",
			Description: "Discard a calibration session and its selection. Reports the sessions still open.",
			InputSchema: sessionOnlySchema(),
		},

		// Layouts
		{
			Name:        "drum_save_layout",
			Description: "Save the session's selected tongues, in playing order, as a named layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Layout name, e.g. the drum model or tuning",
					},
				},
				"required": []string{"session_id", "name"},
			},
		},
		{
			Name:        "drum_list_layouts",
			Description: "List saved layouts, newest first.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "drum_get_layout",
			Description: "Fetch one saved layout with its tongues.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": layoutIDProperty(),
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "drum_delete_layout",
			Description: "Delete a saved layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": layoutIDProperty(),
				},
				"required": []string{"id"},
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
