// Package investigations provides the notice and expert-interview scheduling module.
package investigations

import (
	"interview_portal_backend/internal/events"
	apphttp "interview_portal_backend/internal/http"
	"interview_portal_backend/internal/investigations/handler"
	"interview_portal_backend/internal/investigations/repository"
	"interview_portal_backend/internal/investigations/service"
	"interview_portal_backend/internal/investigations/transport"
	"interview_portal_backend/internal/scheduler"
	"interview_portal_backend/platform/config"
	"interview_portal_backend/platform/logger"
	"interview_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the investigations repository, service and handler.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	Service *service.Service
}

// NewModule creates the module with all dependencies wired. reminders may be
// nil when no queue is configured.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, notifier service.Notifier, eventBus events.Bus, reminders scheduler.ReminderScheduler, cfg config.SchedulingConfig, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, notifier, eventBus, cfg, log)
	if reminders != nil {
		svc.SetReminderScheduler(reminders)
	}

	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
		Service: svc,
	}, nil
}

// Repository exposes the store for background workers.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "investigations"
}

// RegisterRoutes mounts /notices and /contacts under /api/v1
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

var _ apphttp.Module = (*Module)(nil)
