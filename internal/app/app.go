// Package app собирает витрину из хранилища, склада, корзины, каталога и движка
// оформления и запускает HTTP API вместе с сервером метрик.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/inventory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/dataset"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const (
	shutdownTimeout = 5 * time.Second

	kafkaBreakerFailures = 5
	kafkaBreakerReset    = 30 * time.Second
)

// Storefront собранные компоненты витрины поверх одного хранилища.
type Storefront struct {
	Store    domain.Store
	Ledger   *inventory.Ledger
	Cart     *cart.Cart
	Catalog  *catalog.Cache
	Checkout *checkout.Engine
	Orders   *dataset.OrderLog

	idempotencyRepo domain.IdempotencyRepository
}

// BuildOptions необязательные зависимости сборки.
type BuildOptions struct {
	Logger    *log.Entry
	Metrics   *metrics.StorefrontMetrics
	Publisher domain.EventPublisher
}

// Build открывает хранилище, заполняет его стартовым каталогом и связывает компоненты.
func Build(ctx context.Context, cfg Config, opts BuildOptions) (*Storefront, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	st, err := initStorage(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return nil, err
	}

	sf, err := assemble(ctx, cfg, st, opts, logger)
	if err != nil {
		_ = st.store.Close()
		return nil, err
	}
	return sf, nil
}

func assemble(ctx context.Context, cfg Config, st *storage, opts BuildOptions, logger *log.Entry) (*Storefront, error) {
	products, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	if _, err := catalog.Seed(ctx, st.store, products, logger.WithField("layer", "seed")); err != nil {
		return nil, fmt.Errorf("seed storage: %w", err)
	}

	ledger := inventory.NewLedger(st.store,
		inventory.WithLogger(logger.WithField("layer", "inventory")),
		inventory.WithMetrics(opts.Metrics),
	)
	cache := catalog.NewCache(ledger,
		catalog.WithLogger(logger.WithField("layer", "catalog")),
		catalog.WithMetrics(opts.Metrics),
	)
	if _, err := cache.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	c, err := cart.New(ctx, st.store, ledger,
		cart.WithTaxRate(cfg.TaxRate),
		cart.WithLogger(logger.WithField("layer", "cart")),
		cart.WithMetrics(opts.Metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}

	orders := dataset.NewOrderLog(st.store)
	engineOpts := []checkout.Option{
		checkout.WithLogger(logger.WithField("layer", "checkout")),
		checkout.WithMetrics(opts.Metrics),
		checkout.WithCatalog(cache),
	}
	if opts.Publisher != nil {
		engineOpts = append(engineOpts, checkout.WithPublisher(opts.Publisher))
		c.Subscribe(cartPublisher(opts.Publisher, logger.WithField("layer", "kafka")))
	}

	return &Storefront{
		Store:           st.store,
		Ledger:          ledger,
		Cart:            c,
		Catalog:         cache,
		Checkout:        checkout.NewEngine(ledger, orders, engineOpts...),
		Orders:          orders,
		idempotencyRepo: st.idempotencyRepo,
	}, nil
}

// Close закрывает хранилище.
func (s *Storefront) Close() error {
	return s.Store.Close()
}

// Run запускает витрину и блокируется до отмены ctx или ошибки HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := log.WithField("component", "app")

	producer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(producer, logger)

	opts := BuildOptions{
		Logger:  logger,
		Metrics: metrics.NewStorefrontMetrics(),
	}
	if producer != nil {
		kafkaLogger := logger.WithField("layer", "kafka")
		opts.Publisher = kafka.NewResilientPublisher(producer,
			kafka.DefaultRetryConfig(),
			kafka.NewCircuitBreaker(kafkaBreakerFailures, kafkaBreakerReset, kafkaLogger),
			kafkaLogger,
		)
	}

	sf, err := Build(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := sf.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	idemMetrics := metrics.NewIdempotencyMetrics(prometheus.DefaultRegisterer)
	guard := idempotency.NewGuard(sf.idempotencyRepo, cfg.IdempotencyTTL, logger.WithField("layer", "idempotency"), idemMetrics)
	cleanup := idempotency.NewCleanupWorker(sf.idempotencyRepo,
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
		idempotency.WithMetrics(idemMetrics),
		idempotency.WithLogger(logger.WithField("layer", "idempotency-cleanup")),
	)
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go cleanup.Run(workerCtx)

	healthHandler := newHealthHandler(sf)
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.Deps{
		Cart:        sf.Cart,
		Ledger:      sf.Ledger,
		Catalog:     sf.Catalog,
		Checkout:    sf.Checkout,
		Guard:       guard,
		Metrics:     metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Logger:      logger.WithField("layer", "http"),
		CORSOrigins: cfg.CORSOrigins,
	})
	apiSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newHealthHandler(sf *Storefront) *healthcheck.Handler {
	h := healthcheck.NewHandler(version.GetVersion())
	h.RegisterChecker("storage", healthcheck.NewStoreChecker(sf.Store))
	h.RegisterChecker("catalog", healthcheck.NewOptionalChecker("catalog", func(context.Context) error {
		if sf.Catalog.Stale() {
			return errors.New("catalog cache is stale")
		}
		return nil
	}))
	return h
}

// startMetricsServer запускает /metrics и пробы здоровья на отдельном адресе.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, health *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", health)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", health.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
