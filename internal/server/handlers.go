package server

import (
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/lanefinder/internal/camera"
	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/ironsheep/lanefinder/internal/logging"
	"github.com/ironsheep/lanefinder/internal/pipeline"
	"github.com/ironsheep/lanefinder/internal/threshold"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lane_detect", "lane_sequence_frame").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		logging.Debugf("tool %s failed: %v", params.Name, err)
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
//  3. Loads frames from cache as needed
//  4. Runs the pipeline stages the tool exposes
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Setup
	case "lane_frame_info":
		return s.handleFrameInfo(args)
	case "lane_calibration_info":
		return s.handleCalibrationInfo(args)
	case "lane_config":
		return s.handleConfig(args)

	// Stages
	case "lane_threshold":
		return s.handleThreshold(args)
	case "lane_birds_eye":
		return s.handleBirdsEye(args)

	// Detection
	case "lane_detect":
		return s.handleDetect(args)
	case "lane_sequence_start":
		return s.handleSequenceStart(args)
	case "lane_sequence_frame":
		return s.handleSequenceFrame(args)
	case "lane_sequence_end":
		return s.handleSequenceEnd(args)

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

// === Setup Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

type calibrationInfo struct {
	ImageWidth   int                   `json:"image_width"`
	ImageHeight  int                   `json:"image_height"`
	CameraMatrix [3][3]float64         `json:"camera_matrix"`
	DistCoeffs   []float64             `json:"dist_coeffs"`
	Perspective  camera.Correspondence `json:"perspective"`
	ToBirdsEye   camera.Homography     `json:"to_birds_eye"`
	ToCamera     camera.Homography     `json:"to_camera"`
}

func (s *Server) handleCalibrationInfo(args json.RawMessage) (interface{}, error) {
	c := s.pipe.Calibration()
	t := s.pipe.Transform()
	return &calibrationInfo{
		ImageWidth:   c.ImageWidth,
		ImageHeight:  c.ImageHeight,
		CameraMatrix: c.CameraMatrix,
		DistCoeffs:   c.DistCoeffs,
		Perspective:  c.Perspective,
		ToBirdsEye:   t.Matrix(camera.ToBirdsEye),
		ToCamera:     t.Matrix(camera.ToCamera),
	}, nil
}

func (s *Server) handleConfig(args json.RawMessage) (interface{}, error) {
	return s.pipe.Config(), nil
}

// === Stage Handlers ===

type thresholdArgs struct {
	Path          string  `json:"path"`
	IncludeStages bool    `json:"include_stages"`
	Scale         float64 `json:"scale"`
}

type thresholdResult struct {
	Width     int                              `json:"width"`
	Height    int                              `json:"height"`
	Stats     *threshold.Stats                 `json:"stats,omitempty"`
	Combined  *imaging.EncodedImage            `json:"combined"`
	Stages    map[string]*imaging.EncodedImage `json:"stages,omitempty"`
	SetPixels int                              `json:"set_pixels"`
}

func (s *Server) handleThreshold(args json.RawMessage) (interface{}, error) {
	var a thresholdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	st, err := s.pipe.Stages(img)
	if err != nil {
		return nil, err
	}

	combined, err := encodeMask(st.Mask, a.Scale)
	if err != nil {
		return nil, err
	}
	res := &thresholdResult{
		Width:     st.Mask.Width,
		Height:    st.Mask.Height,
		Combined:  combined,
		SetPixels: st.Mask.Count(),
	}
	if st.Threshold == nil {
		return res, nil
	}
	res.Stats = &st.Threshold.Stats

	if a.IncludeStages {
		res.Stages = make(map[string]*imaging.EncodedImage)
		for name, m := range map[string]*imaging.BinaryMask{
			"gradient_x": st.Threshold.GradX,
			"gradient_y": st.Threshold.GradY,
			"magnitude":  st.Threshold.Magnitude,
			"direction":  st.Threshold.Direction,
			"color":      st.Threshold.Color,
		} {
			if m == nil {
				continue
			}
			enc, err := encodeMask(m, a.Scale)
			if err != nil {
				return nil, err
			}
			res.Stages[name] = enc
		}
	}
	return res, nil
}

type birdsEyeArgs struct {
	Path  string  `json:"path"`
	Mode  string  `json:"mode"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleBirdsEye(args json.RawMessage) (interface{}, error) {
	var a birdsEyeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Mode == "" {
		a.Mode = "mask"
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	st, err := s.pipe.Stages(img)
	if err != nil {
		return nil, err
	}

	switch a.Mode {
	case "mask":
		return encodeMask(st.BirdsEye, a.Scale)
	case "image":
		return imaging.EncodePNG(s.pipe.Transform().WarpImage(st.Undistorted, camera.ToBirdsEye), a.Scale)
	default:
		return nil, fmt.Errorf("invalid mode: %s (use 'mask' or 'image')", a.Mode)
	}
}

func encodeMask(m *imaging.BinaryMask, scale float64) (*imaging.EncodedImage, error) {
	return imaging.EncodePNG(m.ToImage(), scale)
}

// === Detection Handlers ===

type detectArgs struct {
	Path           string  `json:"path"`
	IncludeOverlay *bool   `json:"include_overlay"`
	Scale          float64 `json:"scale"`
}

type detectResult struct {
	*pipeline.FrameResult
	RadiusM      float64               `json:"radius_m"`
	OverlayImage *imaging.EncodedImage `json:"overlay_image,omitempty"`
}

func (a detectArgs) overlay() bool {
	return a.IncludeOverlay == nil || *a.IncludeOverlay
}

func newDetectResult(res *pipeline.FrameResult, withOverlay bool, scale float64) (*detectResult, error) {
	out := &detectResult{FrameResult: res, RadiusM: res.RadiusM()}
	if withOverlay && res.Overlay != nil {
		enc, err := imaging.EncodePNG(res.Overlay, scale)
		if err != nil {
			return nil, err
		}
		out.OverlayImage = enc
	}
	return out, nil
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.pipe.Process(s.pipe.NewState(), img)
	if err != nil {
		return nil, err
	}
	return newDetectResult(res, a.overlay(), a.Scale)
}

type sessionResult struct {
	SessionID string  `json:"session_id"`
	Frames    int     `json:"frames"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	DurationS float64 `json:"duration_s,omitempty"`
}

func (s *Server) handleSequenceStart(args json.RawMessage) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= maxSessions {
		s.evictIdleLocked()
	}
	if len(s.sessions) >= maxSessions {
		return nil, fmt.Errorf("too many open sequences (max %d); end one first", maxSessions)
	}
	seq := s.pipe.NewSequence()
	s.sessions[seq.ID] = seq
	w, h := s.pipe.FrameSize()
	return &sessionResult{SessionID: seq.ID, Width: w, Height: h}, nil
}

type sequenceFrameArgs struct {
	SessionID string `json:"session_id"`
	detectArgs
}

func (s *Server) handleSequenceFrame(args json.RawMessage) (interface{}, error) {
	var a sequenceFrameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	seq, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}

	img, err := s.loadSequenceFrame(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := seq.Process(img)
	if err != nil {
		return nil, err
	}
	return newDetectResult(res, a.overlay(), a.Scale)
}

// loadSequenceFrame reads a video frame without keeping it in the cache;
// each frame of a sequence is seen once.
func (s *Server) loadSequenceFrame(path string) (image.Image, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	s.cache.Evict(path)
	return img, nil
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSequenceEnd(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sessions[a.SessionID]
	if !ok {
		return nil, fmt.Errorf("unknown session: %q", a.SessionID)
	}
	delete(s.sessions, a.SessionID)
	return &sessionResult{
		SessionID: seq.ID,
		Frames:    seq.Frames(),
		DurationS: s.now().Sub(seq.Started).Seconds(),
	}, nil
}

// evictIdleLocked drops sessions that have not accepted a frame within the
// idle timeout. s.mu must be held.
func (s *Server) evictIdleLocked() {
	now := s.now()
	for id, seq := range s.sessions {
		idle := now.Sub(seq.LastActive())
		if idle <= s.idleTimeout {
			continue
		}
		logging.Logf("server: evicting sequence %s after %s idle (%d frames)",
			id, idle.Round(time.Second), seq.Frames())
		delete(s.sessions, id)
	}
}

func (s *Server) session(id string) (*pipeline.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %q", id)
	}
	return seq, nil
}

// Config returns the pipeline configuration in use.
func (s *Server) Config() *config.Config {
	return s.pipe.Config()
}
