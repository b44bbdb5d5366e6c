package services

import (
	"github.com/scholaris/scholaris-api/internal/config"
	"github.com/scholaris/scholaris-api/internal/jobs"
	"github.com/scholaris/scholaris-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Student      *StudentService
	Schedule     *ScheduleService
	Ledger       *LedgerService
	Notification *NotificationService
	Report       *ReportService
	Export       *ExportService
	Audit        *AuditService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	auditSvc := NewAuditService(db)

	ledgerSvc := NewLedgerService(repos.Ledger, repos.Student, repos.Schedule, notificationSvc, auditSvc, worker, cfg.ObligationDueDay)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:         NewUserService(repos.User, auditSvc),
		Student:      NewStudentService(repos.Student, auditSvc),
		Schedule:     NewScheduleService(repos.Schedule, auditSvc),
		Ledger:       ledgerSvc,
		Notification: notificationSvc,
		Report:       NewReportService(ledgerSvc, repos.Student),
		Export:       NewExportService(ledgerSvc),
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}
