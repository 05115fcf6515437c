package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

// HealthHandler handles GET /health: liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Liveness returns 200 as long as the process serves requests.
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// DependencyCheck reports whether one backing service is reachable.
type DependencyCheck func(ctx context.Context) error

// HealthDependenciesHandler handles GET /health/ready: readiness probe.
// Every registered check must pass; the model artifact is reported but an
// empty slot does not make the service unready.
type HealthDependenciesHandler struct {
	checks map[string]DependencyCheck
	store  ports.ArtifactStore
}

func NewHealthDependenciesHandler(checks map[string]DependencyCheck, store ports.ArtifactStore) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		checks: checks,
		store:  store,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type artifactStatus struct {
	Present    bool   `json:"present"`
	Generation uint64 `json:"generation"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
	Artifact     *artifactStatus             `json:"artifact,omitempty"`
}

// Readiness pings every dependency.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  readinessResponse
// @Failure  503  {object}  readinessResponse
// @Router   /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	resp := readinessResponse{Dependencies: deps}
	if h.store != nil {
		resp.Artifact = &artifactStatus{
			Present:    h.store.Exists(),
			Generation: h.store.Generation(),
		}
	}

	resp.Status = "ok"
	httpStatus := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	return c.JSON(httpStatus, resp)
}
