package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compliancehub/internal/catalog/models"
	"compliancehub/internal/catalog/store"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/requestcontext"
)

type fakeRefs map[id.ComplianceTypeID]int

func (f fakeRefs) CountByType(_ context.Context, typeID id.ComplianceTypeID) (int, error) {
	return f[typeID], nil
}

type CatalogServiceSuite struct {
	suite.Suite
	svc  *Service
	refs fakeRefs
	ctx  context.Context
	now  time.Time
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.refs = fakeRefs{}
	s.svc = New(store.NewInMemory(lockset.Budget{}), WithReferenceCounter(s.refs))
	s.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func gstr3b(name string) models.Definition {
	return models.Definition{ID: "gstr-3b", Name: name, Periodicity: models.PeriodicityMonthly}
}

func (s *CatalogServiceSuite) TestDefineNewIsVersionOne() {
	t, err := s.svc.DefineComplianceType(s.ctx, gstr3b("GSTR-3B"))
	s.Require().NoError(err)
	s.Equal(1, t.Version)

	found, err := s.svc.GetComplianceTypeByID(s.ctx, "gstr-3b")
	s.Require().NoError(err)
	s.Equal("GSTR-3B", found.Name)
}

func (s *CatalogServiceSuite) TestRedefineUnreferencedBumpsVersion() {
	_, err := s.svc.DefineComplianceType(s.ctx, gstr3b("GSTR-3B"))
	s.Require().NoError(err)

	t, err := s.svc.DefineComplianceType(s.ctx, gstr3b("GSTR-3B Summary"))
	s.Require().NoError(err)
	s.Equal(2, t.Version)
	s.Equal("GSTR-3B Summary", t.Name)
}

func (s *CatalogServiceSuite) TestRedefineReferencedConflicts() {
	_, err := s.svc.DefineComplianceType(s.ctx, gstr3b("GSTR-3B"))
	s.Require().NoError(err)
	s.refs["gstr-3b"] = 2

	_, err = s.svc.DefineComplianceType(s.ctx, gstr3b("Changed"))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	found, err := s.svc.GetComplianceTypeByID(s.ctx, "gstr-3b")
	s.Require().NoError(err)
	s.Equal("GSTR-3B", found.Name)
	s.Equal(1, found.Version)
}

func (s *CatalogServiceSuite) TestInvalidDefinition() {
	_, err := s.svc.DefineComplianceType(s.ctx, models.Definition{ID: "x-1", Name: "", Periodicity: models.PeriodicityAnnual})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CatalogServiceSuite) TestUnknownType() {
	_, err := s.svc.GetComplianceTypeByID(s.ctx, "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CatalogServiceSuite) TestSeedIsIdempotent() {
	defs, err := ParseSeed(strings.NewReader(`
compliance_types:
  - id: GSTR-1
    name: GSTR-1
    periodicity: monthly
  - id: mgt-7
    name: Annual Return
    periodicity: annual
`))
	s.Require().NoError(err)
	s.Require().Len(defs, 2)
	s.Equal(id.ComplianceTypeID("gstr-1"), defs[0].ID)

	created, err := s.svc.Seed(s.ctx, defs)
	s.Require().NoError(err)
	s.Equal(2, created)

	created, err = s.svc.Seed(s.ctx, defs)
	s.Require().NoError(err)
	s.Equal(0, created)

	list, err := s.svc.ListComplianceTypes(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)
	s.Equal(1, list[0].Version)
}

func (s *CatalogServiceSuite) TestParseSeedRejectsBadEntries() {
	_, err := ParseSeed(strings.NewReader("compliance_types:\n  - id: gstr-1\n    name: x\n    periodicity: weekly\n"))
	s.Error(err)

	_, err = ParseSeed(strings.NewReader("compliance_types:\n  - id: gstr-1\n    unknown_key: 1\n"))
	s.Error(err)
}

func (s *CatalogServiceSuite) TestLoadShippedSeedFile() {
	path := filepath.Join("..", "..", "..", "configs", "catalog.yaml")
	if _, err := os.Stat(path); err != nil {
		s.T().Skip("catalog seed not present")
	}
	defs, err := LoadSeedFile(path)
	s.Require().NoError(err)
	s.NotEmpty(defs)
}
