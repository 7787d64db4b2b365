package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interview_portal_backend/internal/investigations/domain"
	"interview_portal_backend/internal/investigations/service"
	"interview_portal_backend/internal/investigations/transport"
	"interview_portal_backend/platform/apperr"
	"interview_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubScheduling struct {
	err      error
	contact  domain.Contact
	contacts []domain.Contact

	lastTopic   string
	lastPropose service.ProposeRdvInput
	withRdvUsed bool
}

func (s *stubScheduling) CreateNotice(_ context.Context, in service.CreateNoticeInput) (*domain.Notice, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Notice{ID: 1, JournalistID: in.JournalistID, Title: in.Title, InvestigationStart: in.InvestigationStart}, nil
}

func (s *stubScheduling) GetNotice(_ context.Context, id int64) (*domain.Notice, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Notice{ID: id, Title: "Notice"}, nil
}

func (s *stubScheduling) TargetExperts(_ context.Context, _ int64, _ []int64, topic string) ([]domain.Contact, error) {
	s.lastTopic = topic
	return s.contacts, s.err
}

func (s *stubScheduling) GetContactForNotice(context.Context, int64, int64) (*domain.Contact, error) {
	return s.result()
}

func (s *stubScheduling) GetContactsForNotice(context.Context, int64) ([]domain.Contact, error) {
	return s.contacts, s.err
}

func (s *stubScheduling) GetContactsWithRdv(context.Context, int64) ([]domain.Contact, error) {
	s.withRdvUsed = true
	return s.contacts, s.err
}

func (s *stubScheduling) Respond(_ context.Context, _ int64, _ domain.ResponseStatus, topic string) (*domain.Contact, error) {
	s.lastTopic = topic
	return s.result()
}

func (s *stubScheduling) ProposeRdv(_ context.Context, _ int64, in service.ProposeRdvInput, topic string) (*domain.Contact, error) {
	s.lastTopic = topic
	s.lastPropose = in
	return s.result()
}

func (s *stubScheduling) AcceptRdv(_ context.Context, _ int64, _ service.AcceptRdvInput, topic string) (*domain.Contact, error) {
	s.lastTopic = topic
	return s.result()
}

func (s *stubScheduling) ConfirmRdv(_ context.Context, _ int64, topic string) (*domain.Contact, error) {
	s.lastTopic = topic
	return s.result()
}

func (s *stubScheduling) CancelRdv(context.Context, int64) (*domain.Contact, error) {
	return s.result()
}

func (s *stubScheduling) result() (*domain.Contact, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := s.contact
	return &c, nil
}

func newTestRouter(t *testing.T, svc Scheduling) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	val := validator.New()
	if err := transport.RegisterValidations(val); err != nil {
		t.Fatalf("register validations: %v", err)
	}

	engine := gin.New()
	New(svc, val).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestCreateNotice(t *testing.T) {
	engine := newTestRouter(t, &stubScheduling{})

	rec := doRequest(engine, http.MethodPost, "/api/v1/notices", `{"journalistId":4,"title":"Drought","investigationStart":"2025-03-01T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp transport.NoticeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != "Drought" || resp.InvestigationStart == nil || resp.InvestigationEnd != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateNoticeValidation(t *testing.T) {
	engine := newTestRouter(t, &stubScheduling{})

	rec := doRequest(engine, http.MethodPost, "/api/v1/notices", `{"journalistId":4}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != msgValidationFailed {
		t.Fatalf("error = %v", body["error"])
	}
	details, _ := body["details"].(map[string]any)
	if details["CreateNoticeRequest.title"] != "required" {
		t.Fatalf("details = %v", body["details"])
	}
}

func TestProposeRdvDomainErrorIsBadRequest(t *testing.T) {
	svc := &stubScheduling{err: apperr.Validation(domain.MsgTooManySlots)}
	engine := newTestRouter(t, svc)

	rec := doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv",
		`{"kind":"VIDEO","slots":["2025-01-15T10:00","2025-01-15T11:00","2025-01-15T12:00","2025-01-15T13:00","2025-01-15T14:00","2025-01-15T15:00"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != domain.MsgTooManySlots {
		t.Fatalf("error = %v", body["error"])
	}
	if len(svc.lastPropose.Slots) != 6 {
		t.Fatalf("slot count must reach the service untouched, got %d", len(svc.lastPropose.Slots))
	}
}

func TestProposeRdvTopics(t *testing.T) {
	svc := &stubScheduling{contact: domain.Contact{ID: 3, AppointmentStatus: domain.AppointmentStatusProposed}}
	engine := newTestRouter(t, svc)

	rec := doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv", `{"kind":"PHONE","slots":["2025-01-15T10:00"],"phone":"0142685300","expectedVersion":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.lastTopic != transport.TopicRdvProposed {
		t.Fatalf("default topic = %q", svc.lastTopic)
	}
	if svc.lastPropose.ExpectedVersion == nil || *svc.lastPropose.ExpectedVersion != 2 {
		t.Fatalf("expected version not forwarded: %+v", svc.lastPropose)
	}

	rec = doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv", `{"kind":"PHONE","slots":["2025-01-15T10:00"],"topic":""}`)
	if rec.Code != http.StatusOK || svc.lastTopic != "" {
		t.Fatalf("explicit empty topic should disable notification, got %q (status %d)", svc.lastTopic, rec.Code)
	}

	rec = doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv", `{"kind":"PHONE","slots":["2025-01-15T10:00"],"topic":"Not A Topic"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed topic should be rejected, status %d", rec.Code)
	}

	rec = doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv", `{"kind":"FAX","slots":["2025-01-15T10:00"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind should be rejected, status %d", rec.Code)
	}
}

func TestProposeRdvRequiresKind(t *testing.T) {
	svc := &stubScheduling{contact: domain.Contact{ID: 3}}
	engine := newTestRouter(t, svc)

	rec := doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv", `{"slots":["2025-01-15T10:00"],"phone":"0142685300"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("proposal without kind should be rejected, status %d", rec.Code)
	}
	body := decodeError(t, rec)
	details, _ := body["details"].(map[string]any)
	if details["ProposeRdvRequest.kind"] != "required" {
		t.Fatalf("details = %v", body["details"])
	}
	if svc.lastPropose.Slots != nil {
		t.Fatal("invalid request must not reach the service")
	}
}

func TestErrorKindsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperr.NotFound("Contact not found"), http.StatusNotFound},
		{"conflict", apperr.Conflict("Contact was modified"), http.StatusConflict},
		{"validation", apperr.Validation(domain.MsgNoRdvProposed), http.StatusBadRequest},
		{"untyped", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		engine := newTestRouter(t, &stubScheduling{err: tc.err})
		rec := doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv/accept", `{"selectedSlot":"2025-01-15T10:00"}`)
		if rec.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.status)
		}
	}
}

func TestUntypedErrorIsNotLeaked(t *testing.T) {
	engine := newTestRouter(t, &stubScheduling{err: errors.New("pq: password authentication failed")})

	rec := doRequest(engine, http.MethodDelete, "/api/v1/contacts/3/rdv", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("internal error text leaked: %s", rec.Body.String())
	}
}

func TestInvalidIDs(t *testing.T) {
	engine := newTestRouter(t, &stubScheduling{})

	for _, path := range []string{"/api/v1/notices/abc", "/api/v1/notices/0", "/api/v1/notices/1/contacts/x"} {
		rec := doRequest(engine, http.MethodGet, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestListContactsWithRdvFilter(t *testing.T) {
	svc := &stubScheduling{contacts: []domain.Contact{{ID: 1, AppointmentStatus: domain.AppointmentStatusProposed, ProposedSlots: []string{"2025-01-15T10:00"}}}}
	engine := newTestRouter(t, svc)

	rec := doRequest(engine, http.MethodGet, "/api/v1/notices/1/contacts", "")
	if rec.Code != http.StatusOK || svc.withRdvUsed {
		t.Fatalf("plain listing: status %d, withRdv %v", rec.Code, svc.withRdvUsed)
	}

	rec = doRequest(engine, http.MethodGet, "/api/v1/notices/1/contacts?withRdv=true", "")
	if rec.Code != http.StatusOK || !svc.withRdvUsed {
		t.Fatalf("rdv listing: status %d, withRdv %v", rec.Code, svc.withRdvUsed)
	}
	var resp transport.ContactListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ProposedSlots[0] != "2025-01-15T10:00" {
		t.Fatalf("unexpected list %+v", resp)
	}
}

func TestConfirmRdvWithoutBody(t *testing.T) {
	svc := &stubScheduling{contact: domain.Contact{ID: 3, AppointmentStatus: domain.AppointmentStatusConfirmed}}
	engine := newTestRouter(t, svc)

	rec := doRequest(engine, http.MethodPost, "/api/v1/contacts/3/rdv/confirm", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.lastTopic != transport.TopicRdvConfirmed {
		t.Fatalf("topic = %q", svc.lastTopic)
	}
}

func TestExportContactsCSV(t *testing.T) {
	scheduled := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)
	svc := &stubScheduling{contacts: []domain.Contact{
		{ID: 1, ExpertID: 10, ResponseStatus: domain.ResponseStatusAccepted, AppointmentStatus: domain.AppointmentStatusAccepted,
			AppointmentKind: domain.AppointmentKindVideo, ProposedSlots: []string{"2025-01-15T10:00", "2025-01-15T14:00"}, ScheduledAt: &scheduled},
		{ID: 2, ExpertID: 11, ResponseStatus: domain.ResponseStatusPending, AppointmentStatus: domain.AppointmentStatusNone},
	}}
	engine := newTestRouter(t, svc)

	rec := doRequest(engine, http.MethodGet, "/api/v1/notices/9/contacts.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", rec.Body.String())
	}
	if !strings.HasPrefix(lines[0], "contact_id,expert_id,response_status") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2025-01-15T10:00|2025-01-15T14:00") || !strings.Contains(lines[1], ",2025-01-15T14:00,") {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestExportContactsCSVEmptyHasHeader(t *testing.T) {
	engine := newTestRouter(t, &stubScheduling{})

	rec := doRequest(engine, http.MethodGet, "/api/v1/notices/9/contacts.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); !strings.HasPrefix(got, "contact_id,") || strings.Contains(got, "\n") {
		t.Fatalf("expected header only, got %q", got)
	}
}
