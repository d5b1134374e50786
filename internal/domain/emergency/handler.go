package emergency

import (
	"github.com/labstack/echo/v4"

	"github.com/medassist/gateway/internal/platform/gated"
)

// Handler exposes emergency access over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the gated emergency endpoints on g.
func (h *Handler) RegisterRoutes(g *echo.Group, o *gated.Orchestrator) {
	g.POST("/emergency-access", gated.Handle(o, gated.Operation[AccessInput]{
		Action:  gated.ActionEmergencyAccess,
		Execute: h.svc.ExecuteAccess,
	}))
}
