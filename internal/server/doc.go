// Package server implements the MCP (Model Context Protocol) server for lane detection.
//
// This package provides a JSON-RPC 2.0 server that exposes the lane finding
// pipeline through the MCP protocol, so MCP-compatible clients can inspect
// each stage of the pipeline on their own road frames and track lanes across
// a video one frame at a time.
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
// Setup:
//   - lane_frame_info: Load a frame and get its metadata
//   - lane_calibration_info: Camera matrix, distortion and homographies
//   - lane_config: Active pipeline configuration
//
// Stages:
//   - lane_threshold: Combined and per-primitive binary masks
//   - lane_birds_eye: Perspective-warped mask or frame
//
// Detection:
//   - lane_detect: Single still, fresh tracking state
//   - lane_sequence_start: Open a tracked sequence
//   - lane_sequence_frame: Process the next frame of a sequence
//   - lane_sequence_end: Close a sequence
//
// # Sequences
//
// Each sequence session owns one lane tracking state and is identified by a
// UUID. Frames of a session are processed in call order; sessions are
// independent of each other. At most 32 sessions may be open at once.
//
// # Frame Caching
//
// Frames loaded by the single-frame tools are cached by path for the lifetime
// of the server process. Sequence frames are evicted after use.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A frame that cannot be processed, such as one of the wrong size, fails that
// call only; the session stays usable.
//
// # Usage
//
//	srv, err := server.New(cfg, calib)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
