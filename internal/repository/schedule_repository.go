package repository

import (
	"context"
	"errors"

	"github.com/scholaris/scholaris-api/internal/models"
	"gorm.io/gorm"
)

// ScheduleRepository defines the interface for fee schedule configuration and
// academic session data access.
type ScheduleRepository interface {
	FindFeeStructure(ctx context.Context, classID, sessionID uint) (*models.FeeStructure, error)
	CreateFeeStructure(ctx context.Context, fs *models.FeeStructure) error
	UpdateFeeStructure(ctx context.Context, fs *models.FeeStructure) error
	ListFeeStructures(ctx context.Context, sessionID uint) ([]models.FeeStructure, error)

	FindTransportFeeStructure(ctx context.Context, classID, sessionID uint) (*models.TransportFeeStructure, error)
	CreateTransportFeeStructure(ctx context.Context, fs *models.TransportFeeStructure) error
	UpdateTransportFeeStructure(ctx context.Context, fs *models.TransportFeeStructure) error
	ListTransportFeeStructures(ctx context.Context, sessionID uint) ([]models.TransportFeeStructure, error)

	FindSessionByID(ctx context.Context, id uint) (*models.Session, error)
	FindActiveSession(ctx context.Context) (*models.Session, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) FindFeeStructure(ctx context.Context, classID, sessionID uint) (*models.FeeStructure, error) {
	var fs models.FeeStructure
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND session_id = ?", classID, sessionID).
		First(&fs).Error
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

func (r *scheduleRepository) CreateFeeStructure(ctx context.Context, fs *models.FeeStructure) error {
	if err := r.db.WithContext(ctx).Create(fs).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.New("a fee structure already exists for this class and session")
		}
		return err
	}
	return nil
}

func (r *scheduleRepository) UpdateFeeStructure(ctx context.Context, fs *models.FeeStructure) error {
	return r.db.WithContext(ctx).Save(fs).Error
}

func (r *scheduleRepository) ListFeeStructures(ctx context.Context, sessionID uint) ([]models.FeeStructure, error) {
	var structures []models.FeeStructure
	db := r.db.WithContext(ctx).Preload("Class").Preload("Session")
	if sessionID != 0 {
		db = db.Where("session_id = ?", sessionID)
	}
	err := db.Order("class_id ASC").Find(&structures).Error
	return structures, err
}

func (r *scheduleRepository) FindTransportFeeStructure(ctx context.Context, classID, sessionID uint) (*models.TransportFeeStructure, error) {
	var fs models.TransportFeeStructure
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND session_id = ?", classID, sessionID).
		First(&fs).Error
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

func (r *scheduleRepository) CreateTransportFeeStructure(ctx context.Context, fs *models.TransportFeeStructure) error {
	if err := r.db.WithContext(ctx).Create(fs).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.New("a transport fee structure already exists for this class and session")
		}
		return err
	}
	return nil
}

func (r *scheduleRepository) UpdateTransportFeeStructure(ctx context.Context, fs *models.TransportFeeStructure) error {
	return r.db.WithContext(ctx).Save(fs).Error
}

func (r *scheduleRepository) ListTransportFeeStructures(ctx context.Context, sessionID uint) ([]models.TransportFeeStructure, error) {
	var structures []models.TransportFeeStructure
	db := r.db.WithContext(ctx).Preload("Class").Preload("Session")
	if sessionID != 0 {
		db = db.Where("session_id = ?", sessionID)
	}
	err := db.Order("class_id ASC").Find(&structures).Error
	return structures, err
}

func (r *scheduleRepository) FindSessionByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *scheduleRepository) FindActiveSession(ctx context.Context) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *scheduleRepository) ListSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Order("start_year DESC, start_month DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *scheduleRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.New("a session with this name already exists")
		}
		return err
	}
	return nil
}
