package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"compliancehub/internal/notification/handler/mocks"
	"compliancehub/internal/notification/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/notification-mocks.go -package=mocks Service

type NotificationHandlerSuite struct {
	suite.Suite
	mockService *mocks.MockService
	router      http.Handler
	now         time.Time
}

func TestNotificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(NotificationHandlerSuite))
}

func (s *NotificationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.mockService = mocks.NewMockService(ctrl)

	h := New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil)), 7)
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterMutations(r)
	h.RegisterAdmin(r)
	s.router = r
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *NotificationHandlerSuite) TestListParsesFilter() {
	entityID := id.NewEntityID()
	s.mockService.EXPECT().
		List(gomock.Any(), models.Filter{EntityID: &entityID, UnreadOnly: true, Limit: 20}).
		Return([]*models.Notification{{ID: id.NewNotificationID(), Type: models.TypeFilingSuccess}}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
		"/notifications?entity_id="+entityID.String()+"&unread=true&limit=20"))

	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), `"type":"FILING_SUCCESS"`)
}

func (s *NotificationHandlerSuite) TestListRejectsBadQuery() {
	for _, q := range []string{"unread=maybe", "limit=0", "limit=501", "entity_id=x"} {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/notifications?"+q))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	}
}

func (s *NotificationHandlerSuite) TestMarkRead() {
	nID := id.NewNotificationID()

	s.Run("requires actor", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/notifications/"+nID.String()+"/read"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("marks read", func() {
		entityID := id.NewEntityID()
		s.mockService.EXPECT().MarkRead(gomock.Any(), nID).Return(&models.Notification{
			ID: nID, Type: models.TypeStatusChange, EntityID: entityID, SubjectID: uuid.New(), Read: true, CreatedAt: s.now,
		}, nil)
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodPost, "/notifications/"+nID.String()+"/read"), id.NewUserID().String())

		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[models.Notification](s.T(), rr)
		s.True(body.Read)
		s.Equal(nID, body.ID)
		s.Equal(entityID, body.EntityID)
	})

	s.Run("not found", func() {
		s.mockService.EXPECT().MarkRead(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "notification not found"))
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodPost, "/notifications/"+id.NewNotificationID().String()+"/read"), id.NewUserID().String())

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *NotificationHandlerSuite) TestScanUsesDefaults() {
	s.mockService.EXPECT().ScanDeadlines(gomock.Any(), s.now, 7).Return(models.ScanResult{Scanned: 3, Emitted: 2}, nil)

	req := testutil.WithRequestTime(testutil.NewRequest(s.T(), http.MethodPost, "/notifications/scan"), s.now)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	s.JSONEq(`{"scanned":3,"emitted":2}`, rr.Body.String())
}

func (s *NotificationHandlerSuite) TestScanExplicitInstant() {
	at := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	s.mockService.EXPECT().ScanDeadlines(gomock.Any(), at, 14).Return(models.ScanResult{}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost,
		"/notifications/scan?now=2025-07-01T00:00:00Z&window_days=14"))
	testutil.AssertStatusOK(s.T(), rr)
}
