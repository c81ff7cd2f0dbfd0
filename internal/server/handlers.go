package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/slitdrum-mcp/internal/calibration"
	"github.com/ironsheep/slitdrum-mcp/internal/detection"
	"github.com/ironsheep/slitdrum-mcp/internal/imaging"
	"github.com/ironsheep/slitdrum-mcp/internal/store"
)

// Defaults for optional tool arguments.
const (
	defaultExpectedCount = 8
	defaultCropPadding   = 8
)

// noCandidatesMessage is shown when detection had to fall back to the
// placeholder ring.
const noCandidatesMessage = "no candidates found, try again"

// errNoLayoutStore is returned by the layout tools when the server runs
// without a database.
var errNoLayoutStore = errors.New("layout storage is not configured")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "drum_detect_tongues").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// imagePayload is implemented by results that carry a rendered PNG. The
// image is sent as MCP image content next to the JSON text.
type imagePayload interface {
	pngBase64() string
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Results carrying an image get a second {"type": "image"} entry. Tool
// execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	entry := s.log.WithFields(logrus.Fields{
		"tool":     params.Name,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("Tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("Tool succeeded")

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(result),
		},
	}
	if img, ok := result.(imagePayload); ok {
		content = append(content, map[string]interface{}{
			"type":     "image",
			"data":     img.pngBase64(),
			"mimeType": "image/png",
		})
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads photos from the cache or sessions from the session table
//  4. Calls the appropriate detection/calibration/imaging/store function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Photo
	case "drum_load":
		return s.handleDrumLoad(args)
	case "drum_edge_map":
		return s.handleDrumEdgeMap(args)

	// Detection
	case "drum_detect_tongues":
		return s.handleDetectTongues(args)

	// Selection
	case "drum_select_tongue":
		return s.handleSelectTongue(args)
	case "drum_deselect_tongue":
		return s.handleDeselectTongue(args)
	case "drum_clear_selection":
		return s.handleClearSelection(args)
	case "drum_selection":
		return s.handleSelection(args)
	case "drum_suggest_order":
		return s.handleSuggestOrder(args)

	// Presentation
	case "drum_overlay":
		return s.handleOverlay(args)
	case "drum_crop_tongue":
		return s.handleCropTongue(args)
	case "drum_end_session":
		return s.handleEndSession(args)

	// Layouts
	case "drum_save_layout":
		return s.handleSaveLayout(args)
	case "drum_list_layouts":
		return s.handleListLayouts(args)
	case "drum_get_layout":
		return s.handleGetLayout(args)
	case "drum_delete_layout":
		return s.handleDeleteLayout(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Photo Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

func (s *Server) handleDrumLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type edgeMapArgs struct {
	Path   string `json:"path"`
	Binary *bool  `json:"binary"`
}

type edgeMapResult struct {
	*imaging.EdgeMapResult
}

func (r edgeMapResult) pngBase64() string { return r.ImageBase64 }

func (s *Server) handleDrumEdgeMap(args json.RawMessage) (interface{}, error) {
	var a edgeMapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := (pathArgs{Path: a.Path}).validate(); err != nil {
		return nil, err
	}
	binary := true
	if a.Binary != nil {
		binary = *a.Binary
	}
	photo, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := imaging.EdgeMap(photo.Image, s.detCfg, binary)
	if err != nil {
		return nil, err
	}
	return edgeMapResult{res}, nil
}

// === Detection Handlers ===

type detectArgs struct {
	Path          string `json:"path"`
	ExpectedCount *int   `json:"expected_count"`
}

// candidateView is a candidate with its index in the session.
type candidateView struct {
	Index int `json:"index"`
	detection.Candidate
}

type detectResult struct {
	SessionID     string               `json:"session_id"`
	ImageWidth    int                  `json:"image_width"`
	ImageHeight   int                  `json:"image_height"`
	ExpectedCount int                  `json:"expected_count"`
	Backend       string               `json:"backend"`
	UsedFallback  bool                 `json:"used_fallback"`
	Message       string               `json:"message"`
	BackendError  string               `json:"backend_error,omitempty"`
	Stats         *detection.Stats     `json:"stats,omitempty"`
	Candidates    []candidateView      `json:"candidates"`
	Arrangement   detectionArrangement `json:"arrangement"`
}

// detectionArrangement reports how ring-like the candidates are.
type detectionArrangement struct {
	CentroidX    float64 `json:"centroid_x"`
	CentroidY    float64 `json:"centroid_y"`
	MeanRadius   float64 `json:"mean_radius"`
	RadialSpread float64 `json:"radial_spread"`
}

// statsBackend runs the built-in pipeline and keeps the stage statistics
// of its last run. One is created per detection call.
type statsBackend struct {
	*detection.Pipeline
	stats *detection.Stats
}

func (b *statsBackend) Detect(buf detection.PixelBuffer, expectedCount int) ([]detection.Candidate, error) {
	res, err := b.Run(buf, expectedCount)
	if err != nil {
		return nil, err
	}
	b.stats = &res.Stats
	return res.Candidates, nil
}

func (s *Server) handleDetectTongues(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := (pathArgs{Path: a.Path}).validate(); err != nil {
		return nil, err
	}
	expected := defaultExpectedCount
	if a.ExpectedCount != nil {
		expected = *a.ExpectedCount
	}
	if expected < 1 {
		return nil, fmt.Errorf("expected_count must be at least 1, got %d", expected)
	}

	photo, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	backend := s.backend
	var recorder *statsBackend
	if p, ok := s.backend.(*detection.Pipeline); ok {
		recorder = &statsBackend{Pipeline: p}
		backend = recorder
	}

	outcome, err := detection.DetectOrFallback(backend, s.detCfg, photo.PixelBuffer(), expected)
	if err != nil {
		return nil, err
	}

	sess := calibration.NewSession(a.Path, photo.Width(), photo.Height(), expected, outcome)
	s.sessions.Add(sess)

	res := &detectResult{
		SessionID:     sess.ID,
		ImageWidth:    sess.Width,
		ImageHeight:   sess.Height,
		ExpectedCount: expected,
		Backend:       outcome.Backend,
		UsedFallback:  outcome.UsedFallback,
		Candidates:    make([]candidateView, len(outcome.Candidates)),
	}
	for i, c := range outcome.Candidates {
		res.Candidates[i] = candidateView{Index: i, Candidate: c}
	}
	arr := detection.Arrange(outcome.Candidates)
	res.Arrangement = detectionArrangement{
		CentroidX:    arr.CentroidX,
		CentroidY:    arr.CentroidY,
		MeanRadius:   arr.MeanRadius,
		RadialSpread: arr.RadialSpread,
	}
	if outcome.BackendErr != nil {
		res.BackendError = outcome.BackendErr.Error()
	}
	if recorder != nil {
		res.Stats = recorder.stats
	}
	if outcome.UsedFallback {
		res.Message = noCandidatesMessage
	} else {
		res.Message = fmt.Sprintf("%d candidates found for %d tongues", len(outcome.Candidates), expected)
	}

	fields := logrus.Fields{
		"session":    sess.ID,
		"width":      sess.Width,
		"height":     sess.Height,
		"expected":   expected,
		"backend":    outcome.Backend,
		"candidates": len(outcome.Candidates),
		"fallback":   outcome.UsedFallback,
	}
	if res.Stats != nil {
		fields["edge_pixels"] = res.Stats.EdgePixels
		fields["contours"] = res.Stats.Contours
		fields["classified"] = res.Stats.Classified
		fields["resolved"] = res.Stats.Resolved
	}
	entry := s.log.WithFields(fields)
	if outcome.BackendErr != nil {
		entry = entry.WithError(outcome.BackendErr)
	}
	entry.Info("Detection finished")

	return res, nil
}

// === Selection Handlers ===

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (a sessionArgs) validate() error {
	if a.SessionID == "" {
		return errors.New("session_id is required")
	}
	return nil
}

type indexArgs struct {
	SessionID string `json:"session_id"`
	Index     *int   `json:"index"`
}

func (a indexArgs) validate() error {
	if err := (sessionArgs{SessionID: a.SessionID}).validate(); err != nil {
		return err
	}
	if a.Index == nil {
		return errors.New("index is required")
	}
	return nil
}

// selectedTongue is one entry of the playing order.
type selectedTongue struct {
	Index        int `json:"index"`
	DisplayOrder int `json:"display_order"`
}

type selectionResult struct {
	SessionID  string           `json:"session_id"`
	Candidates int              `json:"candidates"`
	Order      []int            `json:"order"`
	Tongues    []selectedTongue `json:"tongues"`
}

func newSelectionResult(sessionID string, sel calibration.Selection) *selectionResult {
	order := sel.Order()
	res := &selectionResult{
		SessionID:  sessionID,
		Candidates: sel.Candidates(),
		Order:      order,
		Tongues:    make([]selectedTongue, len(order)),
	}
	for pos, idx := range order {
		res.Tongues[pos] = selectedTongue{Index: idx, DisplayOrder: sel.DisplayOrder(idx)}
	}
	return res
}

// updateSelection applies fn to a session's selection.
func (s *Server) updateSelection(sessionID string, fn func(calibration.Selection) calibration.Selection) (interface{}, error) {
	sel, err := s.sessions.Update(sessionID, fn)
	if err != nil {
		return nil, err
	}
	return newSelectionResult(sessionID, sel), nil
}

func (s *Server) handleSelectTongue(args json.RawMessage) (interface{}, error) {
	var a indexArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.updateSelection(a.SessionID, func(sel calibration.Selection) calibration.Selection {
		return sel.Select(*a.Index)
	})
}

func (s *Server) handleDeselectTongue(args json.RawMessage) (interface{}, error) {
	var a indexArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.updateSelection(a.SessionID, func(sel calibration.Selection) calibration.Selection {
		return sel.Deselect(*a.Index)
	})
}

func (s *Server) handleClearSelection(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.updateSelection(a.SessionID, calibration.Selection.Clear)
}

func (s *Server) handleSelection(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	return newSelectionResult(sess.ID, sess.Selection), nil
}

type suggestOrderArgs struct {
	SessionID string `json:"session_id"`
	Apply     *bool  `json:"apply"`
}

type suggestOrderResult struct {
	Suggested []int            `json:"suggested"`
	Applied   bool             `json:"applied"`
	Angles    []float64        `json:"angles"`
	Selection *selectionResult `json:"selection"`
}

func (s *Server) handleSuggestOrder(args json.RawMessage) (interface{}, error) {
	var a suggestOrderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := (sessionArgs{SessionID: a.SessionID}).validate(); err != nil {
		return nil, err
	}
	apply := true
	if a.Apply != nil {
		apply = *a.Apply
	}

	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	order := calibration.SuggestOrder(sess.Candidates)

	sel := sess.Selection
	if apply {
		sel, err = s.sessions.Update(a.SessionID, func(cur calibration.Selection) calibration.Selection {
			return calibration.SelectionFromOrder(cur.Candidates(), order)
		})
		if err != nil {
			return nil, err
		}
	}

	angles := detection.Arrange(sess.Candidates).Angles
	if angles == nil {
		angles = []float64{}
	}
	return &suggestOrderResult{
		Suggested: order,
		Applied:   apply,
		Angles:    angles,
		Selection: newSelectionResult(a.SessionID, sel),
	}, nil
}

// === Presentation Handlers ===

type overlayResult struct {
	SessionID string `json:"session_id"`
	*imaging.OverlayResult
}

func (r overlayResult) pngBase64() string { return r.ImageBase64 }

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	photo, err := s.cache.Load(sess.ImagePath)
	if err != nil {
		return nil, err
	}

	opts := imaging.DefaultOverlayOptions()
	opts.Selected = sess.Selection.Order()
	res, err := imaging.Overlay(photo.Image, sess.Candidates, opts)
	if err != nil {
		return nil, err
	}
	return overlayResult{SessionID: sess.ID, OverlayResult: res}, nil
}

type cropTongueArgs struct {
	SessionID string  `json:"session_id"`
	Index     *int    `json:"index"`
	Padding   *int    `json:"padding"`
	Scale     float64 `json:"scale"`
}

type cropTongueResult struct {
	Index     int                 `json:"index"`
	Candidate detection.Candidate `json:"candidate"`
	*imaging.CropResult
}

func (r cropTongueResult) pngBase64() string { return r.ImageBase64 }

func (s *Server) handleCropTongue(args json.RawMessage) (interface{}, error) {
	var a cropTongueArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := (indexArgs{SessionID: a.SessionID, Index: a.Index}).validate(); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	padding := defaultCropPadding
	if a.Padding != nil {
		padding = *a.Padding
	}

	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	idx := *a.Index
	if idx < 0 || idx >= len(sess.Candidates) {
		return nil, fmt.Errorf("index %d out of range: session has %d candidates", idx, len(sess.Candidates))
	}
	photo, err := s.cache.Load(sess.ImagePath)
	if err != nil {
		return nil, err
	}

	c := sess.Candidates[idx]
	res, err := imaging.CropCandidate(photo.Image, c.Box, padding, a.Scale)
	if err != nil {
		return nil, err
	}
	return cropTongueResult{Index: idx, Candidate: c, CropResult: res}, nil
}

func (s *Server) handleEndSession(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if err := s.sessions.Remove(a.SessionID); err != nil {
		return nil, err
	}
	s.log.WithField("session", a.SessionID).Debug("Session ended")
	return map[string]interface{}{
		"session_id":    a.SessionID,
		"ended":         true,
		"open_sessions": s.sessions.IDs(),
	}, nil
}

// === Layout Handlers ===

type saveLayoutArgs struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

func (s *Server) handleSaveLayout(args json.RawMessage) (interface{}, error) {
	if s.layouts == nil {
		return nil, errNoLayoutStore
	}
	var a saveLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := (sessionArgs{SessionID: a.SessionID}).validate(); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, errors.New("name is required")
	}

	sess, err := s.sessions.Get(a.SessionID)
	if err != nil {
		return nil, err
	}
	selected := sess.Selected()
	if len(selected) == 0 {
		return nil, errors.New("select at least one tongue before saving a layout")
	}

	l := &store.Layout{
		Name:          a.Name,
		ImagePath:     sess.ImagePath,
		ImageWidth:    sess.Width,
		ImageHeight:   sess.Height,
		ExpectedCount: sess.ExpectedCount,
		Backend:       sess.Backend,
		Tongues:       make([]store.Tongue, len(selected)),
	}
	for i, c := range selected {
		l.Tongues[i] = store.Tongue{
			X:          c.Box.X,
			Y:          c.Box.Y,
			Width:      c.Box.Width,
			Height:     c.Box.Height,
			Confidence: c.Confidence,
			IsFallback: c.IsFallback,
		}
	}
	if err := s.layouts.Create(l); err != nil {
		return nil, fmt.Errorf("failed to save layout: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"layout":  l.ID,
		"session": sess.ID,
		"tongues": len(l.Tongues),
	}).Info("Layout saved")
	return l, nil
}

type layoutSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImagePath string    `json:"image_path"`
	Tongues   int       `json:"tongues"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListLayouts(args json.RawMessage) (interface{}, error) {
	if s.layouts == nil {
		return nil, errNoLayoutStore
	}
	all, err := s.layouts.List()
	if err != nil {
		return nil, err
	}
	out := make([]layoutSummary, len(all))
	for i, l := range all {
		out[i] = layoutSummary{
			ID:        l.ID,
			Name:      l.Name,
			ImagePath: l.ImagePath,
			Tongues:   len(l.Tongues),
			CreatedAt: l.CreatedAt,
		}
	}
	return map[string]interface{}{
		"layouts": out,
		"count":   len(out),
	}, nil
}

type layoutIDArgs struct {
	ID string `json:"id"`
}

func (a layoutIDArgs) validate() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

func (s *Server) handleGetLayout(args json.RawMessage) (interface{}, error) {
	if s.layouts == nil {
		return nil, errNoLayoutStore
	}
	var a layoutIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	l, err := s.layouts.GetByID(a.ID)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", a.ID, err)
	}
	return l, nil
}

func (s *Server) handleDeleteLayout(args json.RawMessage) (interface{}, error) {
	if s.layouts == nil {
		return nil, errNoLayoutStore
	}
	var a layoutIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if err := s.layouts.Delete(a.ID); err != nil {
		return nil, fmt.Errorf("layout %s: %w", a.ID, err)
	}
	return map[string]interface{}{
		"id":      a.ID,
		"deleted": true,
	}, nil
}
