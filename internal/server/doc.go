// Package server implements the MCP (Model Context Protocol) server for slit
// drum tongue calibration.
//
// This package provides a JSON-RPC 2.0 server that exposes tongue detection,
// selection and layout storage through the MCP protocol. An MCP client
// loads a photo of a slit drum, asks for tongue candidates, picks the real
// tongues in playing order and saves the result as a layout.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//   - Logs: logrus entries on stderr
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Photo:
//   - drum_load: Load a photo and get its working size
//   - drum_edge_map: Render the edge map the detector sees
//
// Detection:
//   - drum_detect_tongues: Find tongue candidates and open a session
//
// Selection:
//   - drum_select_tongue, drum_deselect_tongue, drum_clear_selection
//   - drum_selection: Current playing order
//   - drum_suggest_order: Clockwise order around the drum
//
// Presentation:
//   - drum_overlay: Candidates drawn on the photo
//   - drum_crop_tongue: Close-up of one candidate
//   - drum_end_session: Drop a session
//
// Layouts:
//   - drum_save_layout, drum_list_layouts, drum_get_layout, drum_delete_layout
//
// # Sessions
//
// Every drum_detect_tongues call creates a session holding the candidates
// and an empty selection. Sessions live in memory for the lifetime of the
// process. Saved layouts go to SQLite and survive restarts.
//
// When detection finds nothing, or the backend fails, the session is
// filled with evenly spaced placeholders marked as fallbacks so the user
// can still place tongues by hand.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv, err := server.New(server.Options{Store: db})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
