package emergency

import (
	"context"
	"errors"
)

var ErrPatientNotFound = errors.New("patient not found")

type PatientRepository interface {
	GetByHealthID(ctx context.Context, healthID string) (*Patient, error)
}

type AccessLogRepository interface {
	Create(ctx context.Context, l *AccessLog) error
}
