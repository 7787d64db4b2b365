package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/internal/investigations/service"
	"interview_portal_backend/internal/investigations/transport"
	"interview_portal_backend/platform/httpkit"
	"interview_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jszwec/csvutil"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Scheduling is the part of the scheduling service exposed over HTTP.
type Scheduling interface {
	CreateNotice(ctx context.Context, in service.CreateNoticeInput) (*domain.Notice, error)
	GetNotice(ctx context.Context, id int64) (*domain.Notice, error)
	TargetExperts(ctx context.Context, noticeID int64, candidates []int64, topic string) ([]domain.Contact, error)
	GetContactForNotice(ctx context.Context, id int64, noticeID int64) (*domain.Contact, error)
	GetContactsForNotice(ctx context.Context, noticeID int64) ([]domain.Contact, error)
	GetContactsWithRdv(ctx context.Context, noticeID int64) ([]domain.Contact, error)
	Respond(ctx context.Context, contactID int64, status domain.ResponseStatus, topic string) (*domain.Contact, error)
	ProposeRdv(ctx context.Context, contactID int64, in service.ProposeRdvInput, topic string) (*domain.Contact, error)
	AcceptRdv(ctx context.Context, contactID int64, in service.AcceptRdvInput, topic string) (*domain.Contact, error)
	ConfirmRdv(ctx context.Context, contactID int64, topic string) (*domain.Contact, error)
	CancelRdv(ctx context.Context, contactID int64) (*domain.Contact, error)
}

var _ Scheduling = (*service.Service)(nil)

// Handler handles HTTP requests for notices and expert contacts
type Handler struct {
	svc Scheduling
	val *validator.Validator
}

// New creates a new investigations handler
func New(svc Scheduling, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts notice and contact routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	notices := rg.Group("/notices")
	notices.POST("", h.CreateNotice)
	notices.GET("/:id", h.GetNotice)
	notices.POST("/:id/targets", h.TargetExperts)
	notices.GET("/:id/contacts", h.ListContacts)
	notices.GET("/:id/contacts.csv", h.ExportContacts)
	notices.GET("/:id/contacts/:contactId", h.GetContact)

	contacts := rg.Group("/contacts")
	contacts.POST("/:id/response", h.Respond)
	contacts.POST("/:id/rdv", h.ProposeRdv)
	contacts.POST("/:id/rdv/accept", h.AcceptRdv)
	contacts.POST("/:id/rdv/confirm", h.ConfirmRdv)
	contacts.DELETE("/:id/rdv", h.CancelRdv)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the body into req.
func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

// CreateNotice handles POST /api/v1/notices
func (h *Handler) CreateNotice(c *gin.Context) {
	var req transport.CreateNoticeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	notice, err := h.svc.CreateNotice(c.Request.Context(), service.CreateNoticeInput{
		JournalistID:       req.JournalistID,
		MediaID:            req.MediaID,
		CommanditaireID:    req.CommanditaireID,
		Title:              req.Title,
		InvestigationStart: transport.TimeOrZero(req.InvestigationStart),
		InvestigationEnd:   transport.TimeOrZero(req.InvestigationEnd),
		CopyDeadline:       transport.TimeOrZero(req.CopyDeadline),
		PlannedPublication: transport.TimeOrZero(req.PlannedPublication),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToNoticeResponse(*notice))
}

// GetNotice handles GET /api/v1/notices/:id
func (h *Handler) GetNotice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	notice, err := h.svc.GetNotice(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToNoticeResponse(*notice))
}

// TargetExperts handles POST /api/v1/notices/:id/targets
func (h *Handler) TargetExperts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.TargetExpertsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.svc.TargetExperts(c.Request.Context(), id, req.ExpertIDs, transport.ResolveTopic(req.Topic, transport.TopicExpertTargeted))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToContactList(created))
}

// ListContacts handles GET /api/v1/notices/:id/contacts
func (h *Handler) ListContacts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var query transport.ListContactsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	var (
		contacts []domain.Contact
		err      error
	)
	if query.WithRdv {
		contacts, err = h.svc.GetContactsWithRdv(c.Request.Context(), id)
	} else {
		contacts, err = h.svc.GetContactsForNotice(c.Request.Context(), id)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactList(contacts))
}

// ExportContacts handles GET /api/v1/notices/:id/contacts.csv
func (h *Handler) ExportContacts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	contacts, err := h.svc.GetContactsForNotice(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="notice-%d-contacts.csv"`, id))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(transport.ContactCSVRow{}); err != nil {
		_ = c.Error(err)
		return
	}
	if err := enc.Encode(transport.ToCSVRows(contacts)); err != nil {
		_ = c.Error(err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = c.Error(err)
	}
}

// GetContact handles GET /api/v1/notices/:id/contacts/:contactId
func (h *Handler) GetContact(c *gin.Context) {
	noticeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	contactID, ok := parseID(c, "contactId")
	if !ok {
		return
	}

	contact, err := h.svc.GetContactForNotice(c.Request.Context(), contactID, noticeID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(*contact))
}

// Respond handles POST /api/v1/contacts/:id/response
func (h *Handler) Respond(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.RespondRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.svc.Respond(c.Request.Context(), id, domain.ResponseStatus(req.Status), transport.ResolveTopic(req.Topic, transport.TopicExpertResponded))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(*contact))
}

// ProposeRdv handles POST /api/v1/contacts/:id/rdv
func (h *Handler) ProposeRdv(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.ProposeRdvRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.svc.ProposeRdv(c.Request.Context(), id, service.ProposeRdvInput{
		Kind:            domain.AppointmentKind(req.Kind),
		Slots:           req.Slots,
		Phone:           req.Phone,
		VideoLink:       req.VideoLink,
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
	}, transport.ResolveTopic(req.Topic, transport.TopicRdvProposed))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(*contact))
}

// AcceptRdv handles POST /api/v1/contacts/:id/rdv/accept
func (h *Handler) AcceptRdv(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.AcceptRdvRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.svc.AcceptRdv(c.Request.Context(), id, service.AcceptRdvInput{
		SelectedSlot:    req.SelectedSlot,
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
	}, transport.ResolveTopic(req.Topic, transport.TopicRdvAccepted))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(*contact))
}

// ConfirmRdv handles POST /api/v1/contacts/:id/rdv/confirm
func (h *Handler) ConfirmRdv(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.ConfirmRdvRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.svc.ConfirmRdv(c.Request.Context(), id, transport.ResolveTopic(req.Topic, transport.TopicRdvConfirmed))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(*contact))
}

// CancelRdv handles DELETE /api/v1/contacts/:id/rdv
func (h *Handler) CancelRdv(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	contact, err := h.svc.CancelRdv(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(*contact))
}
