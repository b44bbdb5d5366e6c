package repository

import (
	"context"
	"errors"

	"github.com/scholaris/scholaris-api/internal/models"
	"gorm.io/gorm"
)

// StudentRepository defines the interface for student and class data access
type StudentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Student, error)
	FindByAdmissionNo(ctx context.Context, admissionNo string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	List(ctx context.Context, query *ListQuery) ([]models.Student, int64, error)
	FindByClass(ctx context.Context, classID uint) ([]models.Student, error)
	FindClassByID(ctx context.Context, id uint) (*models.Class, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
	CreateClass(ctx context.Context, class *models.Class) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Preload("Class").First(&student, id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByAdmissionNo(ctx context.Context, admissionNo string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("admission_no = ?", admissionNo).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.New("a student with this admission number already exists")
		}
		return err
	}
	return nil
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) List(ctx context.Context, query *ListQuery) ([]models.Student, int64, error) {
	var students []models.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Student{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR admission_no ILIKE ?",
			search, search, search)
	}
	if query.Filters["class_id"] != "" {
		db = db.Where("class_id = ?", query.Filters["class_id"])
	}
	if query.Filters["active"] == "true" {
		db = db.Where("left_at IS NULL")
	}

	db.Count(&total)

	db = db.Order("admission_no ASC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Class").Find(&students).Error
	return students, total, err
}

func (r *studentRepository) FindByClass(ctx context.Context, classID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND left_at IS NULL", classID).
		Order("admission_no ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepository) FindClassByID(ctx context.Context, id uint) (*models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *studentRepository) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).Order("name ASC").Find(&classes).Error
	return classes, err
}

func (r *studentRepository) CreateClass(ctx context.Context, class *models.Class) error {
	if err := r.db.WithContext(ctx).Create(class).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.New("a class with this name already exists")
		}
		return err
	}
	return nil
}
