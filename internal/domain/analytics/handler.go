package analytics

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
	g.POST("/analytics", gated.Handle(o, gated.Operation[ReportInput]{
		Action:  gated.ActionGenerateAnalytics,
		Execute: h.svc.ExecuteReport,
	}))
}
