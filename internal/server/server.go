package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	testbed "github.com/selectdimensions/react-flow-testbed"
	"github.com/selectdimensions/react-flow-testbed/internal/events"
	"github.com/selectdimensions/react-flow-testbed/internal/flows"
	"github.com/selectdimensions/react-flow-testbed/internal/store"
	"github.com/selectdimensions/react-flow-testbed/pkg/api"
	"github.com/selectdimensions/react-flow-testbed/pkg/flow"
	"github.com/selectdimensions/react-flow-testbed/pkg/log"
	"github.com/selectdimensions/react-flow-testbed/pkg/util"
)

// Server implements the HTTP API for storing and retrieving flows
type Server struct {
	flows    *flows.Service
	eventHub *events.Hub
	sockets  util.Set[*Client]
	maxBody  int64
	mu       sync.Mutex
}

const rootMessage = "Flow API is running"

var (
	ErrReadBody     = errors.New("failed to read request body")
	ErrBodyTooLarge = errors.New("request body too large")
)

// NewServer creates a new HTTP API server. Request bodies larger than
// maxBody bytes are rejected
func NewServer(svc *flows.Service, hub *events.Hub, maxBody int64) *Server {
	return &Server{
		flows:    svc,
		eventHub: hub,
		sockets:  util.NewSet[*Client](0),
		maxBody:  maxBody,
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)

	fl := router.Group("/flows")
	{
		fl.GET("", s.listFlows)
		fl.GET("/", s.listFlows)
		fl.POST("", s.createFlow)
		fl.POST("/", s.createFlow)
		fl.POST("/validate", s.validateFlow)

		// WebSocket
		fl.GET("/ws", s.handleWebSocket)

		fl.GET("/:flowID", s.getFlow)
		fl.GET("/:flowID/digest", s.getFlowDigest)
		fl.DELETE("/:flowID", s.deleteFlow)
	}

	return router
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, api.MessageResponse{Message: rootMessage})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: testbed.Name,
		Version: testbed.Version,
		Status:  api.HealthHealthy,
		Store:   s.flows.Backend(),
	})
}

// readBody reads the request body up to the configured limit, writing an
// error response and returning false when it cannot
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	data, err := io.ReadAll(body)
	if err == nil {
		return data, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{
			Error: fmt.Sprintf("%s: limit is %d bytes",
				ErrBodyTooLarge, tooLarge.Limit),
			Status: http.StatusRequestEntityTooLarge,
		})
		return nil, false
	}
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Error:  fmt.Sprintf("%s: %v", ErrReadBody, err),
		Status: http.StatusBadRequest,
	})
	return nil, false
}

// writeError maps err to a response: validation failures are 400, missing
// flows 404 and anything else 500, prefixed with op
func writeError(c *gin.Context, op error, err error) {
	if flow.IsValidationError(err) {
		slog.Debug("Flow rejected",
			slog.String("operation", op.Error()),
			log.Kind(flow.ErrorKind(err)),
			log.Error(err))
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", op, err),
			Kind:   flow.ErrorKind(err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if errors.Is(err, store.ErrFlowNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return
	}

	slog.Error("Flow request failed",
		slog.String("operation", op.Error()),
		log.Error(err))
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{
		Error:  fmt.Sprintf("%s: %v", op, err),
		Status: http.StatusInternalServerError,
	})
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := s.sockets.Items()
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
