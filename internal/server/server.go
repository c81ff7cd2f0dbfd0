package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/slitdrum-mcp/internal/calibration"
	"github.com/ironsheep/slitdrum-mcp/internal/detection"
	"github.com/ironsheep/slitdrum-mcp/internal/imaging"
	"github.com/ironsheep/slitdrum-mcp/internal/store"
)

// ServerName is reported in the initialize handshake.
const ServerName = "slitdrum-mcp"

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

// Server handles MCP protocol communication
type Server struct {
	version  string
	cache    *imaging.ImageCache
	sessions *calibration.SessionTable
	layouts  *store.LayoutRepository
	backend  detection.Backend
	detCfg   detection.Config
	log      *logrus.Logger
	in       io.Reader
	out      io.Writer
}

// Options configures a Server. Zero fields get working defaults: the
// built-in detector with reference thresholds, an image cache without
// downscaling, the standard logrus logger, stdin and stdout. A nil Store
// disables the layout tools.
type Options struct {
	Version   string
	Cache     *imaging.ImageCache
	Store     *store.Store
	Backend   detection.Backend
	Detection *detection.Config
	Logger    *logrus.Logger
	In        io.Reader
	Out       io.Writer
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

// New creates a new MCP server instance
func New(opts Options) (*Server, error) {
	s := &Server{
		version:  opts.Version,
		cache:    opts.Cache,
		sessions: calibration.NewSessionTable(),
		backend:  opts.Backend,
		log:      opts.Logger,
		in:       opts.In,
		out:      opts.Out,
	}
	if s.version == "" {
		s.version = "dev"
	}
	if s.cache == nil {
		s.cache = imaging.NewImageCache(0)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.in == nil {
		s.in = os.Stdin
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if opts.Store != nil {
		s.layouts = opts.Store.Layouts()
	}

	s.detCfg = detection.DefaultConfig()
	if opts.Detection != nil {
		s.detCfg = *opts.Detection
	}
	if s.backend == nil {
		p, err := detection.NewPipeline(s.detCfg)
		if err != nil {
			return nil, err
		}
		s.backend = p
	}

	return s, nil
}

// Run reads newline-delimited requests until the input is exhausted.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(s.out)

	s.log.WithFields(logrus.Fields{
		"version": s.version,
		"backend": s.backend.Name(),
		"layouts": s.layouts != nil,
	}).Info("MCP server ready")

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("Failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Error("Failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("Request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
