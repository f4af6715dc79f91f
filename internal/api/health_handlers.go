package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Documents  uint64                     `json:"documents" doc:"Documents in the search index"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	index, count := s.checkSearchIndex()

	return &HealthOutput{
		Body: HealthResponse{
			Status:     index.Status,
			Documents:  count,
			Components: map[string]ComponentHealth{"search": index},
		},
	}, nil
}

// checkSearchIndex verifies the index is readable. An empty index is degraded.
func (s *Server) checkSearchIndex() (ComponentHealth, uint64) {
	if s.services == nil || s.services.Index == nil {
		return ComponentHealth{Status: "degraded", Message: "search index not configured"}, 0
	}

	start := time.Now()
	count, err := s.services.Index.DocumentCount()
	latency := time.Since(start).String()

	switch {
	case err != nil:
		return ComponentHealth{Status: "unhealthy", Latency: latency, Message: "search index unreachable"}, 0
	case count == 0:
		return ComponentHealth{Status: "degraded", Latency: latency, Message: "search index empty"}, 0
	default:
		return ComponentHealth{Status: "healthy", Latency: latency}, count
	}
}
