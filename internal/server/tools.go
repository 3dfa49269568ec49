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
		"description": "Absolute path to the frame image file",
	}
}

func scaleProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor for returned images (e.g., 0.5 to halve size). Default 1.0",
		"default":     1.0,
	}
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session id returned by lane_sequence_start",
	}
}

func overlayProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Return the annotated frame as base64 PNG. Default true",
		"default":     true,
	}
}

func noArguments() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Setup
		{
			Name:        "lane_frame_info",
			Description: "Load a frame file and return its dimensions, format and size on disk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lane_calibration_info",
			Description: "Return the camera calibration in use: frame size, intrinsic matrix, distortion coefficients, the perspective correspondence and both homographies.",
			InputSchema: noArguments(),
		},
		{
			Name:        "lane_config",
			Description: "Return the active pipeline configuration (stages, thresholds, tracker, scale, overlay).",
			InputSchema: noArguments(),
		},

		// Stages
		{
			Name:        "lane_threshold",
			Description: "Undistort and threshold a frame. Returns the combined binary mask as base64 PNG with gradient statistics, and optionally every intermediate mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"include_stages": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the gradient x/y, magnitude, direction and color masks. Default false",
						"default":     false,
					},
					"scale": scaleProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lane_birds_eye",
			Description: "Warp a frame to the bird's-eye view. Mode 'mask' returns the thresholded mask the tracker sees; mode 'image' returns the undistorted color frame.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"mask", "image"},
						"description": "What to warp. Default 'mask'",
						"default":     "mask",
					},
					"scale": scaleProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Detection
		{
			Name:        "lane_detect",
			Description: "Detect the lane in a single still frame with no tracking history. Returns both lane lines with status, curvature radius in meters, vehicle offset from lane center in meters (negative = left), the lane polygon and an annotated overlay.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":            pathProperty(),
					"include_overlay": overlayProperty(),
					"scale":           scaleProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lane_sequence_start",
			Description: "Start a video sequence. Frames sent to the returned session are tracked in order, with the search guided by previous fits and lines smoothed over recent frames.",
			InputSchema: noArguments(),
		},
		{
			Name:        "lane_sequence_frame",
			Description: "Process the next frame of a sequence. Same result as lane_detect plus the frame number and per-side search mode.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id":      sessionProperty(),
					"path":            pathProperty(),
					"include_overlay": overlayProperty(),
					"scale":           scaleProperty(),
				},
				"required": []string{"session_id", "path"},
			},
		},
		{
			Name:        "lane_sequence_end",
			Description: "End a sequence and release its tracking state. Returns the number of frames processed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty(),
				},
				"required": []string{"session_id"},
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
