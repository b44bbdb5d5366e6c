package services

import (
	"context"
	"fmt"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/repository"
)

// ScheduleService manages sessions and the per-class fee schedules the
// ledger expands from. Editing a schedule never touches obligations that
// were already expanded; accounts keep the amounts they were enabled with.
type ScheduleService struct {
	repo     repository.ScheduleRepository
	auditSvc *AuditService
}

func NewScheduleService(repo repository.ScheduleRepository, auditSvc *AuditService) *ScheduleService {
	return &ScheduleService{repo: repo, auditSvc: auditSvc}
}

func (s *ScheduleService) FindSessionByID(ctx context.Context, id uint) (*models.Session, error) {
	session, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return session, nil
}

func (s *ScheduleService) ActiveSession(ctx context.Context) (*models.Session, error) {
	session, err := s.repo.FindActiveSession(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return session, nil
}

func (s *ScheduleService) ListSessions(ctx context.Context) ([]models.Session, error) {
	return s.repo.ListSessions(ctx)
}

func (s *ScheduleService) CreateSession(ctx context.Context, session *models.Session, actorID uint) error {
	if session.TotalMonths() <= 0 {
		return fmt.Errorf("%w: session must span at least one month", ErrInvalidAmount)
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, actorID, "CREATE", "Session", session.ID,
		fmt.Sprintf("session created: %s", session.Name), "", "")
}

func (s *ScheduleService) FindFeeStructure(ctx context.Context, classID, sessionID uint) (*models.FeeStructure, error) {
	fs, err := s.repo.FindFeeStructure(ctx, classID, sessionID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return fs, nil
}

func (s *ScheduleService) ListFeeStructures(ctx context.Context, sessionID uint) ([]models.FeeStructure, error) {
	return s.repo.ListFeeStructures(ctx, sessionID)
}

func (s *ScheduleService) SaveFeeStructure(ctx context.Context, fs *models.FeeStructure, actorID uint) error {
	if !fs.AnnualTotal().IsPositive() {
		return ErrInvalidAmount
	}
	existing, err := s.repo.FindFeeStructure(ctx, fs.ClassID, fs.SessionID)
	if err == nil {
		fs.ID = existing.ID
		if err := s.repo.UpdateFeeStructure(ctx, fs); err != nil {
			return err
		}
		return s.auditSvc.Log(ctx, actorID, "UPDATE", "FeeStructure", fs.ID,
			fmt.Sprintf("fee structure updated for class #%d session #%d, annual total %s",
				fs.ClassID, fs.SessionID, fs.AnnualTotal()), "", "")
	}
	if err := s.repo.CreateFeeStructure(ctx, fs); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, actorID, "CREATE", "FeeStructure", fs.ID,
		fmt.Sprintf("fee structure created for class #%d session #%d, annual total %s",
			fs.ClassID, fs.SessionID, fs.AnnualTotal()), "", "")
}

func (s *ScheduleService) FindTransportFeeStructure(ctx context.Context, classID, sessionID uint) (*models.TransportFeeStructure, error) {
	fs, err := s.repo.FindTransportFeeStructure(ctx, classID, sessionID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return fs, nil
}

func (s *ScheduleService) ListTransportFeeStructures(ctx context.Context, sessionID uint) ([]models.TransportFeeStructure, error) {
	return s.repo.ListTransportFeeStructures(ctx, sessionID)
}

func (s *ScheduleService) SaveTransportFeeStructure(ctx context.Context, fs *models.TransportFeeStructure, actorID uint) error {
	if !fs.AnnualAmount.IsPositive() {
		return ErrInvalidAmount
	}
	existing, err := s.repo.FindTransportFeeStructure(ctx, fs.ClassID, fs.SessionID)
	if err == nil {
		fs.ID = existing.ID
		if err := s.repo.UpdateTransportFeeStructure(ctx, fs); err != nil {
			return err
		}
		return s.auditSvc.Log(ctx, actorID, "UPDATE", "TransportFeeStructure", fs.ID,
			fmt.Sprintf("transport fee updated for class #%d session #%d: %s",
				fs.ClassID, fs.SessionID, fs.AnnualAmount), "", "")
	}
	if err := s.repo.CreateTransportFeeStructure(ctx, fs); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, actorID, "CREATE", "TransportFeeStructure", fs.ID,
		fmt.Sprintf("transport fee created for class #%d session #%d: %s",
			fs.ClassID, fs.SessionID, fs.AnnualAmount), "", "")
}
