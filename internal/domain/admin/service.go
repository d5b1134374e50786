package admin

import (
	"context"
	"errors"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/hipaa"
	"github.com/medassist/gateway/pkg/apperr"
	"github.com/medassist/gateway/pkg/pagination"
)

type Service struct {
	staff        StaffRepository
	appointments AppointmentRepository
	audit        AuditReader
}

func NewService(staff StaffRepository, appointments AppointmentRepository, audit AuditReader) *Service {
	return &Service{staff: staff, appointments: appointments, audit: audit}
}

// ExecuteOverview lists the staff and a page of appointments for the
// hospital the calling administrator belongs to.
func (s *Service) ExecuteOverview(ctx context.Context, actor *gated.Actor, in *OverviewInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: gated.ProfileTable}

	hospitalID := actor.Profile.HospitalID
	if hospitalID == nil || *hospitalID == "" {
		return res, apperr.Validation("no hospital is assigned to this account")
	}
	res.TargetID = *hospitalID

	staff, err := s.staff.ListByHospital(ctx, *hospitalID)
	if err != nil {
		return res, apperr.Downstream(err, "staff lookup failed")
	}
	byRole := make(map[string]int)
	for _, m := range staff {
		byRole[m.Role]++
	}

	p := pagination.New(in.Limit, in.Offset)
	appts, total, err := s.appointments.ListByHospital(ctx, *hospitalID, p)
	if err != nil {
		return res, apperr.Downstream(err, "appointment lookup failed")
	}

	res.Description = "Viewed hospital overview"
	res.Data = Overview{
		HospitalID:   *hospitalID,
		Staff:        staff,
		StaffByRole:  byRole,
		Appointments: pagination.NewResponse(appts, total, p),
	}
	return res, nil
}

// ExecuteAuditTrail reads a page of audit entries. Hospital administrators
// must name a user, and that user must belong to their hospital.
func (s *Service) ExecuteAuditTrail(ctx context.Context, actor *gated.Actor, in *AuditTrailInput) (*gated.Result, error) {
	res := &gated.Result{TargetTable: hipaa.AuditTable}

	if actor.Profile.Role == auth.RoleHospitalAdmin {
		if err := s.checkSameHospital(ctx, actor, in.UserID); err != nil {
			return res, err
		}
	}

	params := in.params()
	out, err := s.audit.Search(ctx, params)
	if err != nil {
		return res, apperr.Downstream(err, "audit trail lookup failed")
	}

	res.Description = "Viewed audit trail"
	res.Data = pagination.NewResponse(out.Entries, out.Total, pagination.Params{Limit: out.Limit, Offset: out.Offset})
	return res, nil
}

func (s *Service) checkSameHospital(ctx context.Context, actor *gated.Actor, userID string) error {
	own := actor.Profile.HospitalID
	if own == nil || *own == "" {
		return apperr.Validation("no hospital is assigned to this account")
	}
	if userID == "" {
		return apperr.Validation("userId is required for hospital administrators")
	}
	theirs, err := s.staff.HospitalOf(ctx, userID)
	if errors.Is(err, ErrStaffNotFound) {
		return apperr.Wrap(apperr.KindNotFound, err, "user not found")
	}
	if err != nil {
		return apperr.Downstream(err, "staff lookup failed")
	}
	if theirs == nil || *theirs != *own {
		return apperr.Unauthorized("user is not assigned to your hospital")
	}
	return nil
}
