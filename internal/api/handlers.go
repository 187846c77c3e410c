package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"evalgo.org/maestro/internal/manifest"
	"evalgo.org/maestro/models"
)

// ResourceSummary is the wire shape of one resource.
type ResourceSummary struct {
	Name          string             `json:"name"`
	Kind          string             `json:"kind"`
	Endpoints     []EndpointStatus   `json:"endpoints,omitempty"`
	Relationships []RelationshipInfo `json:"relationships,omitempty"`
}

// EndpointStatus is the wire shape of one endpoint and its allocation.
type EndpointStatus struct {
	Name       string `json:"name"`
	Scheme     string `json:"scheme"`
	TargetPort int    `json:"targetPort,omitempty"`
	Port       int    `json:"port,omitempty"`
	External   bool   `json:"external,omitempty"`
	URL        string `json:"url,omitempty"`
}

// RelationshipInfo is the wire shape of one relationship edge.
type RelationshipInfo struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"application": s.application,
		"resources":   len(s.resources),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

// listResources handles GET /api/v1/resources.
func (s *Server) listResources(c echo.Context) error {
	summaries := make([]ResourceSummary, 0, len(s.resources))
	for _, r := range s.resources {
		summaries = append(summaries, summarize(r))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"application": s.application,
		"resources":   summaries,
	})
}

// getResource handles GET /api/v1/resources/:name.
func (s *Server) getResource(c echo.Context) error {
	name := c.Param("name")
	for _, r := range s.resources {
		if r.Name == name {
			return c.JSON(http.StatusOK, summarize(r))
		}
	}
	return NotFoundError("resource", name)
}

// getManifest handles GET /api/v1/manifest. The projection runs on demand so
// the response always reflects the current graph.
func (s *Server) getManifest(c echo.Context) error {
	m, err := manifest.Build(c.Request().Context(), s.resources)
	if err != nil {
		return InternalError("failed to build manifest", err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

// getState handles GET /api/v1/state.
func (s *Server) getState(c echo.Context) error {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	if state == nil {
		return NotFoundError("launch state", "no launch in progress")
	}
	return c.JSON(http.StatusOK, state)
}

func summarize(r *models.Resource) ResourceSummary {
	summary := ResourceSummary{
		Name: r.Name,
		Kind: string(r.Kind),
	}
	for _, ep := range r.Endpoints() {
		status := EndpointStatus{
			Name:       ep.Name,
			Scheme:     ep.Scheme,
			TargetPort: ep.TargetPort,
			External:   ep.External,
		}
		if url, err := ep.ResolvedURL(); err == nil {
			status.URL = url
		}
		if alloc, ok := ep.Allocated(); ok {
			status.Port = alloc.Port
		}
		summary.Endpoints = append(summary.Endpoints, status)
	}
	for _, rel := range r.Relationships() {
		summary.Relationships = append(summary.Relationships, RelationshipInfo{
			Target: rel.Target.Name,
			Type:   rel.Type,
		})
	}
	return summary
}
