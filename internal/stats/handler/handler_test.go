package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	entitymodels "compliancehub/internal/entity/models"
	ledgermodels "compliancehub/internal/ledger/models"
	"compliancehub/internal/stats/handler/mocks"
	"compliancehub/internal/stats/service"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/stats-mocks.go -package=mocks Service

type StatsHandlerSuite struct {
	suite.Suite
	mockService *mocks.MockService
	router      http.Handler
	now         time.Time
}

func TestStatsHandlerSuite(t *testing.T) {
	suite.Run(t, new(StatsHandlerSuite))
}

func (s *StatsHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.mockService = mocks.NewMockService(ctrl)

	r := chi.NewRouter()
	New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *StatsHandlerSuite) get(path string) *http.Request {
	return testutil.WithRequestTime(testutil.NewRequest(s.T(), http.MethodGet, path), s.now)
}

func (s *StatsHandlerSuite) TestComplianceStats() {
	s.Run("defaults to request time and all entities", func() {
		s.mockService.EXPECT().GetComplianceStats(gomock.Any(), (*id.EntityID)(nil), s.now).
			Return(ledgermodels.Stats{Total: 10, Completed: 7, CompletionRate: 70}, nil)

		rr := testutil.DoRequest(s.router, s.get("/stats/compliance"))

		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[ledgermodels.Stats](s.T(), rr)
		s.Equal(70.0, body.CompletionRate)
	})

	s.Run("scopes to entity and explicit now", func() {
		entityID := id.NewEntityID()
		at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		s.mockService.EXPECT().GetComplianceStats(gomock.Any(), &entityID, at).
			Return(ledgermodels.Stats{}, nil)

		rr := testutil.DoRequest(s.router, s.get("/stats/compliance?entity_id="+entityID.String()+"&now=2025-03-01T00:00:00Z"))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("invariant violation is a 500 without description", func() {
		s.mockService.EXPECT().GetComplianceStats(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ledgermodels.Stats{}, dErrors.New(dErrors.CodeInvariantViolation, "compliance record references an unknown entity"))

		rr := testutil.DoRequest(s.router, s.get("/stats/compliance"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInvariantViolation))
		s.NotContains(rr.Body.String(), "unknown entity")
	})

	s.Run("bad entity id", func() {
		rr := testutil.DoRequest(s.router, s.get("/stats/compliance?entity_id=nope"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *StatsHandlerSuite) TestTopEntities() {
	s.mockService.EXPECT().TopPerformingEntities(gomock.Any(), s.now, 3).
		Return([]service.EntityRollup{{
			Entity: &entitymodels.Entity{ID: id.NewEntityID(), Name: "Acme"},
			Stats:  ledgermodels.Stats{Total: 1, Completed: 1, CompletionRate: 100},
		}}, nil)

	rr := testutil.DoRequest(s.router, s.get("/stats/entities/top?limit=3"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), `"name":"Acme"`)
}

func (s *StatsHandlerSuite) TestEntityRollupsEmpty() {
	s.mockService.EXPECT().EntityRollups(gomock.Any(), s.now).Return(nil, nil)

	rr := testutil.DoRequest(s.router, s.get("/stats/entities"))

	testutil.AssertStatusOK(s.T(), rr)
	s.JSONEq(`{"entities":[]}`, rr.Body.String())
}

func (s *StatsHandlerSuite) TestDashboard() {
	s.mockService.EXPECT().Dashboard(gomock.Any(), s.now, ledgermodels.DefaultUpcomingWindowDays).
		Return(&service.Dashboard{Upcoming: 2, Overdue: 1, WindowDays: 30, AsOf: s.now}, nil)

	rr := testutil.DoRequest(s.router, s.get("/stats/dashboard"))

	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[service.Dashboard](s.T(), rr)
	s.Equal(2, body.Upcoming)
	s.Equal(1, body.Overdue)
}

func (s *StatsHandlerSuite) TestDashboardRejectsBadWindow() {
	rr := testutil.DoRequest(s.router, s.get("/stats/dashboard?window_days=soon"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}
