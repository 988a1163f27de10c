package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/executionbackup/engine"
	apperrors "github.com/kbukum/executionbackup/errors"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/node"
	"github.com/kbukum/executionbackup/version"
)

const contentTypeJSON = "application/json"

func (s *Server) registerRoutes() {
	s.engine.POST("/", s.handleRPC)
	s.engine.GET("/metrics", s.handleMetrics)
	s.engine.GET("/recheck", s.handleRecheck)
	s.engine.POST("/add_nodes", s.handleAddNodes)
	s.engine.GET("/executionbackup/version", s.handleVersion)
	s.engine.GET("/executionbackup/status", s.handleStatus)
}

// handleRPC dispatches a JSON-RPC request to the engine or normal route.
func (s *Server) handleRPC(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Data(http.StatusBadRequest, contentTypeJSON, engine.MakeError(0, "could not read request body"))
		return
	}

	req, err := engine.ParseRequest(body)
	if err != nil {
		s.log.WithContext(c.Request.Context()).WithError(err).Warn("undecodable request body")
		c.Data(http.StatusBadRequest, contentTypeJSON, engine.MakeError(0, err.Error()))
		return
	}

	auth := c.GetHeader("Authorization")

	if engine.IsEngineMethod(req.Method) {
		// Engine calls are replayed verbatim to the nodes, so the
		// consensus client's own token is required.
		if auth == "" {
			appErr := apperrors.Unauthorized("Authorization header required for engine API calls")
			c.Data(appErr.HTTPStatus, contentTypeJSON, engine.MakeError(req.ID, appErr.Message))
			return
		}
		resp, status := s.router.RouteEngine(c.Request.Context(), req, body, auth)
		c.Data(status, contentTypeJSON, resp)
		return
	}

	resp, status := s.router.RouteNormal(c.Request.Context(), body, auth)
	c.Data(status, contentTypeJSON, resp)
}

// handleMetrics serves the node pool snapshot.
func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.router.MakeReport())
}

// handleRecheck forces a health recheck and reports how long it took.
func (s *Server) handleRecheck(c *gin.Context) {
	start := time.Now()
	s.router.Recheck(c.Request.Context())

	report := s.router.MakeReport()
	report.RecheckTime = time.Since(start).Microseconds()
	c.JSON(http.StatusOK, report)
}

// addNodesRequest is the /add_nodes payload. Entries may carry a
// #jwt-secret= suffix like config entries.
type addNodesRequest struct {
	Nodes []string `json:"nodes" binding:"required,min=1"`
}

// handleAddNodes registers new nodes and rechecks so they can serve
// traffic immediately.
func (s *Server) handleAddNodes(c *gin.Context) {
	var req addNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nodes := make([]*node.Node, 0, len(req.Nodes))
	for _, raw := range req.Nodes {
		n, err := s.newNode(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "node": raw})
			return
		}
		nodes = append(nodes, n)
	}

	s.router.AddNodes(nodes...)
	s.log.Info("nodes added via api", logger.Fields("count", len(nodes)))

	start := time.Now()
	s.router.Recheck(c.Request.Context())

	report := s.router.MakeReport()
	report.RecheckTime = time.Since(start).Microseconds()
	c.JSON(http.StatusOK, report)
}

// handleVersion serves the build version.
func (s *Server) handleVersion(c *gin.Context) {
	c.String(http.StatusOK, version.ClientVersion())
}

// statusResponse is the /executionbackup/status body.
type statusResponse struct {
	Status string `json:"status"`
	Alive  int    `json:"alive_nodes"`
	Dead   int    `json:"dead_nodes"`
}

// handleStatus answers 200 while at least one node is alive, 503
// otherwise, for load balancer health checks.
func (s *Server) handleStatus(c *gin.Context) {
	alive, dead := s.router.Counts()

	resp := statusResponse{Status: "ok", Alive: alive, Dead: dead}
	code := http.StatusOK
	if alive == 0 {
		resp.Status = "no nodes available"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
