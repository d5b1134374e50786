package medication

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
	g.POST("/prescriptions", gated.Handle(o, gated.Operation[CreateInput]{
		Action:  gated.ActionCreatePrescription,
		Execute: h.svc.ExecuteCreate,
	}))
	g.POST("/prescriptions/upload", gated.Handle(o, gated.Operation[UploadInput]{
		Action:  gated.ActionUploadPrescription,
		Execute: h.svc.ExecuteUpload,
	}))
	g.POST("/prescriptions/dispense", gated.Handle(o, gated.Operation[DispenseInput]{
		Action:  gated.ActionDispensePrescription,
		Execute: h.svc.ExecuteDispense,
	}))
}
