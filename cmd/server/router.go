package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "compliancehub/internal/catalog/handler"
	dochandler "compliancehub/internal/document/handler"
	entityhandler "compliancehub/internal/entity/handler"
	jwttoken "compliancehub/internal/jwt_token"
	ledgerhandler "compliancehub/internal/ledger/handler"
	notifhandler "compliancehub/internal/notification/handler"
	"compliancehub/internal/platform/metrics"
	"compliancehub/internal/platform/middleware"
	statshandler "compliancehub/internal/stats/handler"
	"compliancehub/pkg/platform/middleware/admin"
	"compliancehub/pkg/platform/middleware/auth"
	"compliancehub/pkg/platform/middleware/requesttime"
)

const (
	jwtIssuer      = "compliancehub"
	jwtAudience    = "compliancehub-api"
	requestTimeout = 25 * time.Second
)

// newRouter mounts every module under /v1. Reads are public, mutations need
// a bearer token, and registry/catalog/scan administration needs the admin
// token.
func newRouter(a *app) http.Handler {
	m := metrics.New()
	jwtService := jwttoken.NewJWTService(a.cfg.Server.JWTSigningKey, jwtIssuer, jwtAudience)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	entities := entityhandler.New(a.entities, a.logger)
	catalog := cataloghandler.New(a.catalog, a.logger)
	ledger := ledgerhandler.New(a.ledger, a.logger)
	documents := dochandler.New(a.documents, a.logger, a.cfg.Documents.MaxSizeBytes)
	stats := statshandler.New(a.stats, a.logger)
	notifications := notifhandler.New(a.deriver, a.logger, a.cfg.Scanner.WindowDays)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(a.logger, m))
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(requesttime.Middleware)

		r.Group(func(r chi.Router) {
			entities.Register(r)
			catalog.Register(r)
			ledger.Register(r)
			documents.Register(r)
			stats.Register(r)
			notifications.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(validator, a.logger))
			ledger.RegisterMutations(r)
			documents.RegisterMutations(r)
			notifications.RegisterMutations(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(a.cfg.Server.AdminToken, a.logger))
			entities.RegisterAdmin(r)
			catalog.RegisterAdmin(r)
			notifications.RegisterAdmin(r)
		})
	})
	return r
}
