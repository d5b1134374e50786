package diagnostics

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
	g.POST("/lab-reports/upload", gated.Handle(o, gated.Operation[UploadInput]{
		Action:  gated.ActionUploadLabReport,
		Execute: h.svc.ExecuteUpload,
	}))
}
