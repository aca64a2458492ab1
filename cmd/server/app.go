package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	catalogservice "compliancehub/internal/catalog/service"
	catalogstore "compliancehub/internal/catalog/store"
	"compliancehub/internal/document/blob"
	docmetrics "compliancehub/internal/document/metrics"
	docservice "compliancehub/internal/document/service"
	docstore "compliancehub/internal/document/store"
	entityservice "compliancehub/internal/entity/service"
	entitystore "compliancehub/internal/entity/store"
	ledgermetrics "compliancehub/internal/ledger/metrics"
	ledgerservice "compliancehub/internal/ledger/service"
	ledgerstore "compliancehub/internal/ledger/store"
	"compliancehub/internal/notification/dedupe"
	"compliancehub/internal/notification/deriver"
	notifmetrics "compliancehub/internal/notification/metrics"
	"compliancehub/internal/notification/publisher"
	notifstore "compliancehub/internal/notification/store"
	"compliancehub/internal/platform/config"
	"compliancehub/internal/platform/kafka"
	"compliancehub/internal/platform/lockset"
	"compliancehub/internal/platform/postgres"
	platformredis "compliancehub/internal/platform/redis"
	statsservice "compliancehub/internal/stats/service"
	"compliancehub/pkg/platform/circuit"
)

// app holds every wired service plus the resources main must release.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	entities  *entityservice.Service
	catalog   *catalogservice.Service
	ledger    *ledgerservice.Service
	documents *docservice.Service
	stats     *statsservice.Service
	deriver   *deriver.Deriver
	publisher *publisher.Publisher

	closers []func()
}

type stores struct {
	entities      entityservice.Store
	catalog       catalogservice.Store
	ledger        ledgerservice.Store
	documents     docservice.Store
	notifications deriver.Store
}

func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	a.entities = entityservice.New(st.entities, entityservice.WithLogger(logger))
	a.catalog = catalogservice.New(st.catalog, catalogservice.WithLogger(logger))
	if err := a.seedCatalog(ctx); err != nil {
		return nil, err
	}

	deduper, err := a.openDeduper(ctx)
	if err != nil {
		return nil, err
	}

	notifMetrics := notifmetrics.New()
	deriverOpts := []deriver.Option{
		deriver.WithLogger(logger),
		deriver.WithMetrics(notifMetrics),
		deriver.WithTypeReader(a.catalog),
	}
	if a.publisher, err = a.openPublisher(ctx, notifMetrics); err != nil {
		return nil, err
	}
	if a.publisher != nil {
		deriverOpts = append(deriverOpts, deriver.WithPublisher(a.publisher))
	}

	// The deriver reads upcoming deadlines through its own ledger view so the
	// observing ledger service can be built after it.
	upcoming := ledgerservice.New(st.ledger, a.entities, a.catalog, ledgerservice.WithLogger(logger))
	a.deriver = deriver.New(st.notifications, deduper, upcoming, deriverOpts...)

	a.ledger = ledgerservice.New(st.ledger, a.entities, a.catalog,
		ledgerservice.WithLogger(logger),
		ledgerservice.WithMetrics(ledgermetrics.New()),
		ledgerservice.WithObserver(a.deriver),
	)
	a.catalog.SetReferenceCounter(a.ledger)

	docOpts := []docservice.Option{
		docservice.WithLogger(logger),
		docservice.WithMetrics(docmetrics.New()),
		docservice.WithObserver(a.deriver),
		docservice.WithLimits(cfg.Documents.MaxSizeBytes, cfg.Documents.AllowedContentTypes),
	}
	blobs, err := a.openBlobStore(ctx)
	if err != nil {
		return nil, err
	}
	if blobs != nil {
		docOpts = append(docOpts, docservice.WithBlobStore(blobs))
	}
	a.documents = docservice.New(st.documents, a.entities, a.ledger, docOpts...)

	a.stats = statsservice.New(a.entities, a.ledger, a.documents, statsservice.WithLogger(logger))
	return a, nil
}

func (a *app) openStores(ctx context.Context) (stores, error) {
	budget := lockset.Budget{Attempts: a.cfg.Lock.Attempts, Backoff: a.cfg.Lock.Backoff}
	if a.cfg.Database.URL == "" {
		a.logger.InfoContext(ctx, "using in-memory stores")
		return stores{
			entities:      entitystore.NewInMemory(budget),
			catalog:       catalogstore.NewInMemory(budget),
			ledger:        ledgerstore.NewInMemory(budget),
			documents:     docstore.NewInMemory(budget),
			notifications: notifstore.NewInMemory(),
		}, nil
	}

	db, err := openDatabase(ctx, a.cfg.Database)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	if a.cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return stores{}, fmt.Errorf("migrate: %w", err)
		}
	}
	a.logger.InfoContext(ctx, "using postgres stores")
	return stores{
		entities:      entitystore.NewPostgres(db, budget),
		catalog:       catalogstore.NewPostgres(db),
		ledger:        ledgerstore.NewPostgres(db, budget),
		documents:     docstore.NewPostgres(db, budget),
		notifications: notifstore.NewPostgres(db),
	}, nil
}

func openDatabase(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return postgres.Open(ctx, postgres.Options{
		DSN:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
}

func (a *app) seedCatalog(ctx context.Context) error {
	if a.cfg.Catalog.SeedFile == "" {
		return nil
	}
	defs, err := catalogservice.LoadSeedFile(a.cfg.Catalog.SeedFile)
	if err != nil {
		return err
	}
	n, err := a.catalog.Seed(ctx, defs)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	a.logger.InfoContext(ctx, "catalog seeded", "file", a.cfg.Catalog.SeedFile, "types", n)
	return nil
}

func (a *app) openDeduper(ctx context.Context) (deriver.Deduper, error) {
	client, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return dedupe.NewInMemory(a.cfg.Redis.DedupeTTL), nil
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.logger.InfoContext(ctx, "using redis notification dedupe")
	return dedupe.NewRedis(client.Client, a.cfg.Redis.DedupeTTL), nil
}

func (a *app) openPublisher(ctx context.Context, m *notifmetrics.Metrics) (*publisher.Publisher, error) {
	if len(a.cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:  a.cfg.Kafka.Brokers,
		ClientID: a.cfg.Kafka.ClientID,
		Topic:    a.cfg.Kafka.Topic,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, producer.Close)
	if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
		a.logger.WarnContext(ctx, "notification topic not ensured", "topic", a.cfg.Kafka.Topic, "error", err)
	}
	breaker := circuit.New("notification-fanout",
		circuit.WithFailureThreshold(a.cfg.Kafka.FailureThreshold),
		circuit.WithCooldown(a.cfg.Kafka.ProbeCooldown),
	)
	return publisher.New(producer,
		publisher.WithBreaker(breaker),
		publisher.WithLogger(a.logger),
		publisher.WithMetrics(m),
	), nil
}

func (a *app) openBlobStore(ctx context.Context) (docservice.BlobStore, error) {
	if a.cfg.Blob.Endpoint == "" {
		return nil, nil
	}
	store, err := blob.NewMinIO(a.cfg.Blob)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
