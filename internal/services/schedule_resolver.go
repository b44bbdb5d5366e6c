package services

import (
	"context"
	"errors"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Schedule is the resolved annual fee composition for a (class, session)
// pair, independent of which table it came from.
type Schedule struct {
	ClassID     uint
	SessionID   uint
	Components  []models.FeeComponent
	AnnualTotal decimal.Decimal
}

// ScheduleResolver maps (class, session) to an annual fee schedule. The fee
// and transport ledgers each get their own implementation; a missing schedule
// is a hard stop surfaced as ErrScheduleNotFound, never a silent zero.
type ScheduleResolver interface {
	Resolve(ctx context.Context, classID, sessionID uint) (*Schedule, error)
}

type feeScheduleResolver struct {
	repo repository.ScheduleRepository
}

// NewFeeScheduleResolver resolves schedules from the fee structure table.
func NewFeeScheduleResolver(repo repository.ScheduleRepository) ScheduleResolver {
	return &feeScheduleResolver{repo: repo}
}

func (r *feeScheduleResolver) Resolve(ctx context.Context, classID, sessionID uint) (*Schedule, error) {
	fs, err := r.repo.FindFeeStructure(ctx, classID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &Schedule{
		ClassID:     fs.ClassID,
		SessionID:   fs.SessionID,
		Components:  fs.Components(),
		AnnualTotal: fs.AnnualTotal(),
	}, nil
}

type transportScheduleResolver struct {
	repo repository.ScheduleRepository
}

// NewTransportScheduleResolver resolves schedules from the transport fee table.
func NewTransportScheduleResolver(repo repository.ScheduleRepository) ScheduleResolver {
	return &transportScheduleResolver{repo: repo}
}

func (r *transportScheduleResolver) Resolve(ctx context.Context, classID, sessionID uint) (*Schedule, error) {
	fs, err := r.repo.FindTransportFeeStructure(ctx, classID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &Schedule{
		ClassID:     fs.ClassID,
		SessionID:   fs.SessionID,
		Components:  []models.FeeComponent{{Name: "transport", Amount: fs.AnnualAmount}},
		AnnualTotal: fs.AnnualAmount,
	}, nil
}
