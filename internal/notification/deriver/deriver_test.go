package deriver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	catalogmodels "compliancehub/internal/catalog/models"
	catalogservice "compliancehub/internal/catalog/service"
	catalogstore "compliancehub/internal/catalog/store"
	docmodels "compliancehub/internal/document/models"
	entitymodels "compliancehub/internal/entity/models"
	entityservice "compliancehub/internal/entity/service"
	entitystore "compliancehub/internal/entity/store"
	ledgermodels "compliancehub/internal/ledger/models"
	ledgerservice "compliancehub/internal/ledger/service"
	ledgerstore "compliancehub/internal/ledger/store"
	"compliancehub/internal/notification/dedupe"
	"compliancehub/internal/notification/models"
	"compliancehub/internal/notification/store"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/requestcontext"
)

type flakyStore struct {
	*store.InMemory
	mu    sync.Mutex
	fails int
}

func (f *flakyStore) Create(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	if f.fails > 0 {
		f.fails--
		f.mu.Unlock()
		return errors.New("database unavailable")
	}
	f.mu.Unlock()
	return f.InMemory.Create(ctx, n)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*models.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n *models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, n)
}

type DeriverSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	store     *flakyStore
	publisher *recordingPublisher
	ledger    *ledgerservice.Service
	deriver   *Deriver
	entity    *entitymodels.Entity
	actor     id.UserID
}

func TestDeriverSuite(t *testing.T) {
	suite.Run(t, new(DeriverSuite))
}

func (s *DeriverSuite) SetupTest() {
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	entities := entityservice.New(entitystore.NewInMemory(lockset.Budget{}))
	catalog := catalogservice.New(catalogstore.NewInMemory(lockset.Budget{}))
	_, err := catalog.DefineComplianceType(s.ctx, catalogmodels.Definition{
		ID: "gstr-3b", Name: "GSTR-3B", Periodicity: catalogmodels.PeriodicityMonthly,
	})
	s.Require().NoError(err)

	s.store = &flakyStore{InMemory: store.NewInMemory()}
	s.publisher = &recordingPublisher{}
	ledgerStore := ledgerstore.NewInMemory(lockset.Budget{})
	reader := ledgerservice.New(ledgerStore, entities, catalog)
	s.deriver = New(s.store, dedupe.NewInMemory(0), reader,
		WithTypeReader(catalog),
		WithPublisher(s.publisher),
	)
	s.ledger = ledgerservice.New(ledgerStore, entities, catalog, ledgerservice.WithObserver(s.deriver))

	s.entity, err = entities.UpsertEntity(s.ctx, entityservice.UpsertEntityInput{Profile: entitymodels.Profile{Name: "Acme"}})
	s.Require().NoError(err)
	s.actor = id.NewUserID()
}

func (s *DeriverSuite) schedule(period string, dueInDays int) *ledgermodels.ComplianceRecord {
	r, err := s.ledger.ScheduleCompliance(s.ctx, ledgerservice.ScheduleInput{
		EntityID: s.entity.ID,
		TypeID:   "gstr-3b",
		Period:   period,
		DueDate:  s.now.Add(time.Duration(dueInDays) * 24 * time.Hour),
	})
	s.Require().NoError(err)
	return r
}

func (s *DeriverSuite) list() []*models.Notification {
	list, err := s.deriver.List(s.ctx, models.Filter{EntityID: &s.entity.ID})
	s.Require().NoError(err)
	return list
}

func (s *DeriverSuite) TestLedgerTransitionsEmitStatusChange() {
	r := s.schedule("2025-05", 5)

	_, err := s.ledger.UpdateStatus(s.ctx, r.ID, ledgermodels.StatusInProgress, s.actor, s.now)
	s.Require().NoError(err)
	_, err = s.ledger.UpdateStatus(s.ctx, r.ID, ledgermodels.StatusCompleted, s.actor, s.now.Add(time.Hour))
	s.Require().NoError(err)

	list := s.list()
	s.Require().Len(list, 2)
	for _, n := range list {
		s.Equal(models.TypeStatusChange, n.Type)
		s.Equal(uuid.UUID(r.ID), n.SubjectID)
	}
	s.Equal("GSTR-3B completed", list[0].Title)
	s.Equal("GSTR-3B for period 2025-05 moved from IN_PROGRESS to COMPLETED.", list[0].Message)
	s.Len(s.publisher.published, 2)
}

func (s *DeriverSuite) TestAssignmentEmitsNothing() {
	r := s.schedule("2025-05", 5)
	_, err := s.ledger.Assign(s.ctx, r.ID, id.NewUserID(), s.actor, s.now)
	s.Require().NoError(err)
	s.Empty(s.list())
}

func (s *DeriverSuite) TestDocumentVerificationMapping() {
	recordID := id.NewComplianceID()
	cases := []struct {
		name     string
		status   docmodels.Status
		record   *id.ComplianceID
		wantType models.Type
	}{
		{"verified with record", docmodels.StatusVerified, &recordID, models.TypeFilingSuccess},
		{"verified without record", docmodels.StatusVerified, nil, models.TypeDocumentVerification},
		{"rejected with record", docmodels.StatusRejected, &recordID, models.TypeDocumentVerification},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			docID := id.NewDocumentID()
			s.deriver.OnDocumentVerified(s.ctx, docmodels.DocumentVerified{
				DocumentID:   docID,
				EntityID:     s.entity.ID,
				ComplianceID: tc.record,
				FileName:     "challan.pdf",
				Status:       tc.status,
				Notes:        "stamp missing",
				At:           s.now,
			})
			var found *models.Notification
			for _, n := range s.list() {
				if n.SubjectID == uuid.UUID(docID) {
					found = n
				}
			}
			s.Require().NotNil(found)
			s.Equal(tc.wantType, found.Type)
		})
	}
}

func (s *DeriverSuite) TestDocumentUploadEmitsNotification() {
	docID := id.NewDocumentID()
	s.deriver.OnDocumentUploaded(s.ctx, docmodels.DocumentUploaded{
		DocumentID: docID, EntityID: s.entity.ID, FileName: "return.pdf", UploadedBy: s.actor, At: s.now,
	})

	list := s.list()
	s.Require().Len(list, 1)
	s.Equal(models.TypeDocumentUploaded, list[0].Type)
	s.Equal(s.now, list[0].CreatedAt)
}

func (s *DeriverSuite) TestScanDeadlinesIsIdempotent() {
	soon := s.schedule("2025-05", 5)
	s.schedule("2025-06", 40)
	done := s.schedule("2025-04", 3)
	_, err := s.ledger.UpdateStatus(s.ctx, done.ID, ledgermodels.StatusCompleted, s.actor, s.now)
	s.Require().NoError(err)

	first, err := s.deriver.ScanDeadlines(s.ctx, s.now, 30)
	s.Require().NoError(err)
	s.Equal(models.ScanResult{Scanned: 1, Emitted: 1}, first)

	second, err := s.deriver.ScanDeadlines(s.ctx, s.now.Add(time.Hour), 30)
	s.Require().NoError(err)
	s.Equal(models.ScanResult{Scanned: 1, Emitted: 0}, second)

	var deadlines []*models.Notification
	for _, n := range s.list() {
		if n.Type == models.TypeDeadlineApproaching {
			deadlines = append(deadlines, n)
		}
	}
	s.Require().Len(deadlines, 1)
	s.Equal(uuid.UUID(soon.ID), deadlines[0].SubjectID)
	s.Equal("GSTR-3B due in 5 days", deadlines[0].Title)
}

func (s *DeriverSuite) TestScanDeadlinesRetryAfterFailure() {
	s.schedule("2025-05", 2)
	s.store.fails = 1

	_, err := s.deriver.ScanDeadlines(s.ctx, s.now, 7)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.list())

	res, err := s.deriver.ScanDeadlines(s.ctx, s.now, 7)
	s.Require().NoError(err)
	s.Equal(1, res.Emitted)
	s.Len(s.list(), 1)
}

func (s *DeriverSuite) TestScanDeadlinesRejectsNegativeWindow() {
	_, err := s.deriver.ScanDeadlines(s.ctx, s.now, -1)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *DeriverSuite) TestMarkRead() {
	s.deriver.OnDocumentUploaded(s.ctx, docmodels.DocumentUploaded{
		DocumentID: id.NewDocumentID(), EntityID: s.entity.ID, FileName: "a.pdf", At: s.now,
	})
	n := s.list()[0]

	read, err := s.deriver.MarkRead(s.ctx, n.ID)
	s.Require().NoError(err)
	s.True(read.Read)

	unread, err := s.deriver.List(s.ctx, models.Filter{EntityID: &s.entity.ID, UnreadOnly: true})
	s.Require().NoError(err)
	s.Empty(unread)

	_, err = s.deriver.MarkRead(s.ctx, id.NewNotificationID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
