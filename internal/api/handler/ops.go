// Package handler provides HTTP handlers for the DropRoute API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/api/response"
	"github.com/droproute/droproute/internal/provider/resilience"
)

// readinessTimeout bounds each subsystem check.
const readinessTimeout = 2 * time.Second

// Pinger is a subsystem that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Subsystem is a named dependency checked by the readiness and status endpoints.
type Subsystem struct {
	Name   string
	Pinger Pinger
}

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version    string
	BuildTime  string
	Registry   *resilience.Registry
	Subsystems []Subsystem
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. It fails with 503 when any
// subsystem is unreachable. Provider breakers do not affect readiness; a
// provider outage degrades planning but the delivery list still works.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.checkSubsystems(r.Context())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	}
	for _, s := range subsystems {
		if s.Status == models.HealthStatusFail {
			health.Status = models.HealthStatusFail
			if health.Details == nil {
				health.Details = map[string]interface{}{}
			}
			health.Details[s.Name] = derefString(s.Detail)
		}
	}

	status := http.StatusOK
	if health.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: h.checkSubsystems(r.Context()),
		Providers:  h.providerStatuses(),
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, p := range status.Providers {
		// An open breaker only degrades the service; deliveries remain usable.
		if p.Status != models.HealthStatusOK {
			status.Status = worst(status.Status, models.HealthStatusDegraded)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) checkSubsystems(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, 0, len(h.cfg.Subsystems))
	for _, s := range h.cfg.Subsystems {
		st := models.SubsystemStatus{Name: s.Name, Status: models.HealthStatusOK}
		if s.Pinger != nil {
			pingCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
			if err := s.Pinger.Ping(pingCtx); err != nil {
				detail := err.Error()
				st.Status = models.HealthStatusFail
				st.Detail = &detail
			}
			cancel()
		}
		out = append(out, st)
	}
	return out
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.cfg.Registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, p := range all {
		ps := models.ProviderStatus{
			Provider:            p.Name,
			Status:              models.HealthStatusOK,
			CircuitState:        p.CircuitState.String(),
			ConsecutiveFailures: p.Counts.ConsecutiveFailures,
			LastSuccessAt:       models.TimestampPtr(p.LastSuccessAt),
			LastFailureAt:       models.TimestampPtr(p.LastFailureAt),
			StateChangedAt:      models.TimestampPtr(p.StateChangedAt),
		}
		switch {
		case p.IsUnhealthy():
			ps.Status = models.HealthStatusFail
		case p.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
