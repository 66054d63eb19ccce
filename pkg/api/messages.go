package api

import "time"

type (
	// FlowCreatedResponse is returned when a flow is saved
	FlowCreatedResponse struct {
		ID      FlowID `json:"id"`
		Message string `json:"message"`
	}

	// FlowValidResponse is returned by a successful dry-run validation
	FlowValidResponse struct {
		Message   string `json:"message"`
		NodeCount int    `json:"node_count"`
		EdgeCount int    `json:"edge_count"`
	}

	// FlowDigest provides summary information about a stored flow
	FlowDigest struct {
		ID        FlowID    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
		NodeCount int       `json:"node_count"`
		EdgeCount int       `json:"edge_count"`
	}

	// FlowsListResponse contains stored flow summaries, newest first
	FlowsListResponse struct {
		Flows []*FlowDigest `json:"flows"`
		Count int           `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
		Store   string `json:"store"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests. Kind is set
	// for validation failures
	ErrorResponse struct {
		Error  string `json:"error"`
		Kind   string `json:"kind,omitempty"`
		Status int    `json:"status,omitempty"`
	}
)

const HealthHealthy = "healthy"
