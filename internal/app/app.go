package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/memory"
	"github.com/niksmo/storefront/internal/adapter/notify"
	"github.com/niksmo/storefront/internal/adapter/payment"
	"github.com/niksmo/storefront/internal/adapter/redisdb"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/twmb/franz-go/pkg/sr"
)

const uploadsURLPrefix = "/uploads"

var pingRetry = retry.RetryConfig{
	MaxAttempts: 5,
	Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
}

type serdes struct {
	notice  schema.Serde
	payment schema.Serde
}

type producers struct {
	notices  *kafka.NoticesProducer
	payments *kafka.PaymentsProducer
}

type outbound struct {
	products  port.ProductsStorage
	images    storage.ImageStorage
	snapshots port.SnapshotStorage
	notifier  port.Notifier
	payer     port.Payer
	recorder  port.PaymentsRecorder
	history   port.PaymentsHistory
	proc      port.PaymentHistoryProcessor
	view      *kafka.PaymentHistoryView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	tlsConfig  *tls.Config
	sqlDB      storage.SQLDB
	redis      *redis.Client
	serdes     serdes
	producers  producers
	outbound   outbound
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initStorage()
	app.initSnapshots()
	app.initBroker()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	if !app.cfg.Broker.Enabled || !app.cfg.TLSEnabled() {
		return
	}

	t := app.cfg.Broker.TLS
	tlsConfig, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	app.tlsConfig = tlsConfig
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqlDB, err := storage.NewSQLDB(app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	err = retry.Do(app.ctx, pingRetry, func() error {
		return sqlDB.Ping(app.ctx)
	})
	if err != nil {
		app.fallDown(op, err)
	}

	images, err := storage.NewImageStorage(
		afero.NewOsFs(), app.cfg.UploadsDir, uploadsURLPrefix,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.sqlDB = sqlDB
	app.outbound.products = storage.NewProductsRepository(sqlDB)
	app.outbound.images = images
	app.outbound.payer = payment.NewSimulator(
		app.cfg.Payment.SuccessRate, app.cfg.Payment.Delay,
	)
}

func (app *App) initSnapshots() {
	const op = "App.initSnapshots"

	if !app.cfg.Redis.Enabled {
		slog.Info("redis is disabled, carts are kept in memory", "op", op)
		app.outbound.snapshots = memory.NewSnapshotStorage()
		return
	}

	cl := redisdb.NewClient(
		app.cfg.Redis.Addr,
		redisdb.WithPassword(app.cfg.Redis.Password),
		redisdb.WithDB(app.cfg.Redis.DB),
	)
	err := retry.Do(app.ctx, pingRetry, func() error {
		return redisdb.Ping(app.ctx, cl)
	})
	if err != nil {
		app.fallDown(op, err)
	}

	app.redis = cl
	app.outbound.snapshots = redisdb.NewSnapshotStorage(cl)
}

func (app *App) initBroker() {
	const op = "App.initBroker"

	if !app.cfg.Broker.Enabled {
		slog.Info("broker is disabled, payments are kept in memory", "op", op)
		payments := memory.NewPayments()
		app.outbound.notifier = notify.Log{}
		app.outbound.recorder = payments
		app.outbound.history = payments
		return
	}

	app.initSerdes()
	app.initProducers()
	app.initPaymentHistory()

	app.outbound.notifier = notify.Multi{notify.Log{}, app.producers.notices}
	app.outbound.recorder = app.producers.payments
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	ctx := app.ctx

	srOpts := []sr.ClientOpt{sr.URLs(app.cfg.Broker.SchemaRegistryURLs...)}
	if app.tlsConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.tlsConfig))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	noticeSerde, err := schema.NewSerdeNoticeV1(
		ctx,
		schema.SubjectOpt(app.cfg.Broker.Topics.CartNotices+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	paymentSerde, err := schema.NewSerdePaymentV1(
		ctx,
		schema.SubjectOpt(app.cfg.Broker.Topics.Payments+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.notice = noticeSerde
	app.serdes.payment = paymentSerde
}

func (app *App) initProducers() {
	const op = "App.initProducers"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics

	noticesProducer, err := kafka.NewNoticesProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.CartNotices, app.tlsConfig),
		kafka.ProducerEncoderOpt(app.serdes.notice),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	paymentsProducer, err := kafka.NewPaymentsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.Payments, app.tlsConfig),
		kafka.ProducerEncoderOpt(app.serdes.payment),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.producers.notices = &noticesProducer
	app.producers.payments = &paymentsProducer
}

func (app *App) initPaymentHistory() {
	const op = "App.initPaymentHistory"

	historyConfig := kafka.PaymentHistoryConfig{
		SeedBrokers:   app.cfg.Broker.SeedBrokers,
		PaymentsTopic: app.cfg.Broker.Topics.Payments,
		Group:         app.cfg.Broker.Consumers.PaymentHistoryGroup,
		PaymentSerde:  app.serdes.payment,
		TLSConfig:     app.tlsConfig,
	}

	proc, err := kafka.NewPaymentHistoryProc(historyConfig)
	if err != nil {
		app.fallDown(op, err)
	}

	view, err := kafka.NewPaymentHistoryView(historyConfig)
	if err != nil {
		app.fallDown(op, err)
	}

	app.outbound.proc = proc
	app.outbound.view = view
	app.outbound.history = view
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	registry, err := cart.NewRegistry(
		app.cfg.CartKey, app.outbound.snapshots, app.outbound.notifier,
		cart.IdleTTLOpt(app.cfg.CartIdleTTL),
		cart.MaxCartsOpt(app.cfg.CartMaxCarts),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.service = service.New(service.Config{
		Products:    app.outbound.products,
		Images:      app.outbound.images,
		Carts:       registry,
		Payer:       app.outbound.payer,
		Recorder:    app.outbound.recorder,
		History:     app.outbound.history,
		HistoryProc: app.outbound.proc,
	})
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.service)
	httphandler.RegisterUploads(mux, uploadsURLPrefix, app.outbound.images.Handler())
	httphandler.RegisterCart(mux, app.service, app.service, app.cfg.SessionHeader)

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, mux,
		httphandler.HandlerTimeout(app.cfg.Payment.Delay),
	)
}

// Run starts the components and the http server.
//
// Blocks while the payment history processor is preparing.
func (app *App) Run(stopFn context.CancelFunc) {
	app.service.Run(app.ctx, stopFn)
	if app.outbound.view != nil {
		go app.outbound.view.Run(app.ctx)
	}
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()

	if app.producers.notices != nil {
		app.producers.notices.Close()
	}
	if app.producers.payments != nil {
		app.producers.payments.Close()
	}
	if app.redis != nil {
		redisdb.Close(app.redis)
	}
	app.sqlDB.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
