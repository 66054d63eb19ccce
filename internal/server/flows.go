package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selectdimensions/react-flow-testbed/internal/flows"
	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

const (
	msgFlowSaved   = "Flow saved successfully"
	msgFlowValid   = "Flow is valid"
	msgFlowDeleted = "Flow deleted successfully"
)

var (
	ErrCreateFlow   = errors.New("failed to save flow")
	ErrValidateFlow = errors.New("invalid flow")
	ErrListFlows    = errors.New("failed to list flows")
	ErrGetFlow      = errors.New("failed to load flow")
	ErrDeleteFlow   = errors.New("failed to delete flow")
)

func (s *Server) createFlow(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}

	rec, err := s.flows.CreateFlow(c.Request.Context(), data)
	if err != nil {
		writeError(c, ErrCreateFlow, err)
		return
	}

	c.JSON(http.StatusCreated, api.FlowCreatedResponse{
		ID:      rec.ID,
		Message: msgFlowSaved,
	})
}

func (s *Server) validateFlow(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}

	doc, err := s.flows.ValidateFlow(data)
	if err != nil {
		writeError(c, ErrValidateFlow, err)
		return
	}

	c.JSON(http.StatusOK, api.FlowValidResponse{
		Message:   msgFlowValid,
		NodeCount: len(doc.Nodes()),
		EdgeCount: len(doc.Edges()),
	})
}

func (s *Server) listFlows(c *gin.Context) {
	digests, err := s.flows.ListFlows(c.Request.Context())
	if err != nil {
		writeError(c, ErrListFlows, err)
		return
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: digests,
		Count: len(digests),
	})
}

func (s *Server) getFlow(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))

	rec, err := s.flows.GetFlow(c.Request.Context(), flowID)
	if err != nil {
		writeError(c, ErrGetFlow, err)
		return
	}

	c.Header("X-Flow-ID", string(rec.ID))
	c.Data(http.StatusOK, "application/json; charset=utf-8", rec.Data)
}

func (s *Server) getFlowDigest(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))

	rec, err := s.flows.GetFlow(c.Request.Context(), flowID)
	if err != nil {
		writeError(c, ErrGetFlow, err)
		return
	}

	c.JSON(http.StatusOK, flows.Digest(rec))
}

func (s *Server) deleteFlow(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))

	if err := s.flows.DeleteFlow(c.Request.Context(), flowID); err != nil {
		writeError(c, ErrDeleteFlow, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: msgFlowDeleted})
}
