package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"compliancehub/internal/ledger/handler/mocks"
	"compliancehub/internal/ledger/models"
	"compliancehub/internal/ledger/service"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/ledger-mocks.go -package=mocks Service

type LedgerHandlerSuite struct {
	suite.Suite
	mockService *mocks.MockService
	router      http.Handler
	now         time.Time
	actor       id.UserID
}

func TestLedgerHandlerSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerSuite))
}

func (s *LedgerHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.mockService = mocks.NewMockService(ctrl)

	h := New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterMutations(r)
	s.router = r
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.actor = id.NewUserID()
}

func (s *LedgerHandlerSuite) record(due time.Time, status models.Status) *models.ComplianceRecord {
	return &models.ComplianceRecord{
		ID:       id.NewComplianceID(),
		EntityID: id.NewEntityID(),
		TypeID:   "gstr-3b",
		Period:   "2025-05",
		DueDate:  due,
		Status:   status,
	}
}

type viewBody struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
}

type listBody struct {
	Compliances []viewBody `json:"compliances"`
}

func (s *LedgerHandlerSuite) TestUpcomingParsesWindowAndNow() {
	rec := s.record(s.now.Add(5*24*time.Hour), models.StatusPending)
	s.mockService.EXPECT().
		GetUpcomingCompliances(gomock.Any(), s.now, 7).
		Return([]*models.ComplianceRecord{rec}, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/compliances/upcoming?window_days=7&now=2025-06-15T12:00:00Z")
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[listBody](s.T(), rr)
	s.Require().Len(body.Compliances, 1)
	s.Equal(rec.ID.String(), body.Compliances[0].ID)
	s.Equal("PENDING", body.Compliances[0].EffectiveStatus)
}

func (s *LedgerHandlerSuite) TestUpcomingDefaultsWindow() {
	s.mockService.EXPECT().
		GetUpcomingCompliances(gomock.Any(), s.now, models.DefaultUpcomingWindowDays).
		Return(nil, nil)

	req := testutil.WithRequestTime(testutil.NewRequest(s.T(), http.MethodGet, "/compliances/upcoming"), s.now)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[listBody](s.T(), rr)
	s.NotNil(body.Compliances)
	s.Empty(body.Compliances)
}

func (s *LedgerHandlerSuite) TestUpcomingRejectsBadQuery() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/compliances/upcoming?window_days=soon"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/compliances/overdue?now=yesterday"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *LedgerHandlerSuite) TestOverdueAnnotatesEffectiveStatus() {
	rec := s.record(s.now.Add(-24*time.Hour), models.StatusPending)
	s.mockService.EXPECT().
		GetOverdueCompliances(gomock.Any(), s.now).
		Return([]*models.ComplianceRecord{rec}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/compliances/overdue?now=2025-06-15T12:00:00Z"))

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[listBody](s.T(), rr)
	s.Require().Len(body.Compliances, 1)
	s.Equal("PENDING", body.Compliances[0].Status)
	s.Equal("OVERDUE", body.Compliances[0].EffectiveStatus)
}

func (s *LedgerHandlerSuite) TestGetNotFound() {
	recordID := id.NewComplianceID()
	s.mockService.EXPECT().
		GetCompliance(gomock.Any(), recordID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "compliance record not found"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/compliances/"+recordID.String()))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func (s *LedgerHandlerSuite) TestUpdateStatusRequiresActor() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliances/"+id.NewComplianceID().String()+"/status",
		map[string]string{"status": "COMPLETED"})

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
}

func (s *LedgerHandlerSuite) TestUpdateStatus() {
	rec := s.record(s.now.Add(24*time.Hour), models.StatusCompleted)
	s.mockService.EXPECT().
		UpdateStatus(gomock.Any(), rec.ID, models.StatusCompleted, s.actor, s.now).
		Return(rec, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliances/"+rec.ID.String()+"/status",
		map[string]string{"status": "completed"})
	req = testutil.WithRequestTime(testutil.WithUserID(req, s.actor.String()), s.now)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[viewBody](s.T(), rr)
	s.Equal("COMPLETED", body.EffectiveStatus)
}

func (s *LedgerHandlerSuite) TestUpdateStatusMapsInvalidTransition() {
	recordID := id.NewComplianceID()
	s.mockService.EXPECT().
		UpdateStatus(gomock.Any(), recordID, models.StatusPending, s.actor, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot transition from COMPLETED to PENDING"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliances/"+recordID.String()+"/status",
		map[string]string{"status": "PENDING"})
	rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.actor.String()))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeInvalidTransition))
}

func (s *LedgerHandlerSuite) TestUpdateStatusRejectsUnknownStatus() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliances/"+id.NewComplianceID().String()+"/status",
		map[string]string{"status": "ARCHIVED"})
	rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.actor.String()))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *LedgerHandlerSuite) TestAssign() {
	rec := s.record(s.now.Add(24*time.Hour), models.StatusPending)
	assignee := id.NewUserID()
	s.mockService.EXPECT().
		Assign(gomock.Any(), rec.ID, assignee, s.actor, gomock.Any()).
		Return(rec, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliances/"+rec.ID.String()+"/assign",
		map[string]string{"assignee_id": assignee.String()})
	rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.actor.String()))

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *LedgerHandlerSuite) TestSchedule() {
	rec := s.record(time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), models.StatusPending)
	s.mockService.EXPECT().
		ScheduleCompliance(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in service.ScheduleInput) (*models.ComplianceRecord, error) {
			s.Equal(rec.EntityID, in.EntityID)
			s.Equal(id.ComplianceTypeID("gstr-3b"), in.TypeID)
			s.Equal(time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), in.DueDate)
			s.Nil(in.AssigneeID)
			return rec, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliances", map[string]string{
		"entity_id":          rec.EntityID.String(),
		"compliance_type_id": "GSTR-3B",
		"period":             "2025-06",
		"due_date":           "2025-07-20",
	})
	rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.actor.String()))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *LedgerHandlerSuite) TestScheduleRejectsBadDueDate() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliances", map[string]string{
		"entity_id":          id.NewEntityID().String(),
		"compliance_type_id": "gstr-3b",
		"period":             "2025-06",
		"due_date":           "20/07/2025",
	})
	rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.actor.String()))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}
