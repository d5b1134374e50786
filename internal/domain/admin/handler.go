package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/medassist/gateway/internal/platform/gated"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group, o *gated.Orchestrator) {
	g.POST("/hospital/overview", gated.Handle(o, gated.Operation[OverviewInput]{
		Action:  gated.ActionViewHospitalOverview,
		Execute: h.svc.ExecuteOverview,
	}))
	g.POST("/audit-trail", gated.Handle(o, gated.Operation[AuditTrailInput]{
		Action:  gated.ActionViewAuditTrail,
		Execute: h.svc.ExecuteAuditTrail,
	}))
}
