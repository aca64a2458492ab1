package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"compliancehub/internal/catalog/models"
	"compliancehub/internal/catalog/service"
	"compliancehub/internal/catalog/store"
	"compliancehub/internal/platform/lockset"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/testutil"
)

type staticRefs int

func (n staticRefs) CountByType(context.Context, id.ComplianceTypeID) (int, error) { return int(n), nil }

func newCatalogRouter(refs int) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(lockset.Budget{}), service.WithReferenceCounter(staticRefs(refs)))
	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	return r
}

func TestDefineAndFetch(t *testing.T) {
	router := newCatalogRouter(0)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/compliance-types/GSTR-3B", map[string]string{
		"name":        "GSTR-3B",
		"periodicity": "monthly",
	}))
	testutil.AssertStatusOK(t, rr)
	created := testutil.UnmarshalResponse[models.ComplianceType](t, rr)
	assert.Equal(t, id.ComplianceTypeID("gstr-3b"), created.ID)
	assert.Equal(t, 1, created.Version)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/compliance-types/gstr-3b"))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/compliance-types"))
	testutil.AssertStatusOK(t, rr)
	list := testutil.UnmarshalResponse[listResponse](t, rr)
	assert.Len(t, list.ComplianceTypes, 1)
}

func TestDefineRejectsBadPeriodicity(t *testing.T) {
	router := newCatalogRouter(0)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/compliance-types/gstr-3b", map[string]string{
		"name":        "GSTR-3B",
		"periodicity": "weekly",
	}))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestRedefineReferencedTypeConflicts(t *testing.T) {
	router := newCatalogRouter(1)
	body := map[string]string{"name": "GSTR-3B", "periodicity": "monthly"}

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/compliance-types/gstr-3b", body))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPut, "/compliance-types/gstr-3b", body))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}
