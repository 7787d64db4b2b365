package events

import (
	platformevents "interview_portal_backend/platform/events"
	"interview_portal_backend/platform/logger"
)

type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates the process-wide bus shared by all modules.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
