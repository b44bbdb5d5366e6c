package handlers

import (
	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/scholaris/scholaris-api/internal/services"
	"github.com/scholaris/scholaris-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Student      *StudentHandler
	Schedule     *ScheduleHandler
	Fees         *LedgerHandler
	Transport    *LedgerHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, storage *storage.LocalStorage) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Student:      NewStudentHandler(svcs.Student),
		Schedule:     NewScheduleHandler(svcs.Schedule),
		Fees:         NewLedgerHandler(svcs.Ledger, storage, models.CategoryFee),
		Transport:    NewLedgerHandler(svcs.Ledger, storage, models.CategoryTransport),
		Notification: NewNotificationHandler(svcs.Notification),
		Report:       NewReportHandler(svcs.Report, svcs.Export),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}
