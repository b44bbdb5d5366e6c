package services

import (
	"context"
	"fmt"
	"time"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/repository"
)

// StudentService handles student and class records
type StudentService struct {
	repo     repository.StudentRepository
	auditSvc *AuditService
}

func NewStudentService(repo repository.StudentRepository, auditSvc *AuditService) *StudentService {
	return &StudentService{repo: repo, auditSvc: auditSvc}
}

func (s *StudentService) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return student, nil
}

func (s *StudentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Student, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *StudentService) FindByClass(ctx context.Context, classID uint) ([]models.Student, error) {
	return s.repo.FindByClass(ctx, classID)
}

func (s *StudentService) Create(ctx context.Context, student *models.Student, actorID uint) error {
	if _, err := s.repo.FindClassByID(ctx, student.ClassID); err != nil {
		return mapNotFound(err)
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, actorID, "CREATE", "Student", student.ID,
		fmt.Sprintf("student enrolled: %s (%s)", student.FullName(), student.AdmissionNo), "", "")
}

func (s *StudentService) Update(ctx context.Context, student *models.Student, actorID uint) error {
	if err := s.repo.Update(ctx, student); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, actorID, "UPDATE", "Student", student.ID,
		fmt.Sprintf("student updated: %s", student.AdmissionNo), "", "")
}

// MarkLeft records a student's departure. Their ledger accounts stay readable
// and keep accepting payments against existing obligations; only new enables
// are blocked elsewhere.
func (s *StudentService) MarkLeft(ctx context.Context, id uint, leftAt time.Time, actorID uint) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	student.LeftAt = &leftAt
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actorID, "MARK_LEFT", "Student", student.ID,
		fmt.Sprintf("student marked as left on %s", leftAt.Format("2006-01-02")), "", "")
	return student, nil
}

func (s *StudentService) ListClasses(ctx context.Context) ([]models.Class, error) {
	return s.repo.ListClasses(ctx)
}

func (s *StudentService) CreateClass(ctx context.Context, class *models.Class, actorID uint) error {
	if err := s.repo.CreateClass(ctx, class); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, actorID, "CREATE", "Class", class.ID,
		fmt.Sprintf("class created: %s", class.Name), "", "")
}
