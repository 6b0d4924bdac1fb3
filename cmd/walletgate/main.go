package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ivanpodgorny/walletgate/internal/config"
	"github.com/ivanpodgorny/walletgate/internal/entity"
	"github.com/ivanpodgorny/walletgate/internal/events"
	"github.com/ivanpodgorny/walletgate/internal/gateway"
	"github.com/ivanpodgorny/walletgate/internal/handler"
	"github.com/ivanpodgorny/walletgate/internal/lock"
	"github.com/ivanpodgorny/walletgate/internal/logger"
	"github.com/ivanpodgorny/walletgate/internal/metrics"
	"github.com/ivanpodgorny/walletgate/internal/middleware"
	"github.com/ivanpodgorny/walletgate/internal/migrations"
	"github.com/ivanpodgorny/walletgate/internal/repository"
	"github.com/ivanpodgorny/walletgate/internal/security"
	"github.com/ivanpodgorny/walletgate/internal/service"
	"github.com/ivanpodgorny/walletgate/internal/validator"
	"github.com/ivanpodgorny/walletgate/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	workersCount    = 4
	queueSize       = 64
	lockTTL         = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

type publisher interface {
	Publish(ctx context.Context, e entity.SettlementEvent) error
	Close() error
}

type locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func main() {
	if err := Execute(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func Execute() error {
	cfg, err := config.NewBuilder().LoadDotEnv().LoadFlags().LoadEnv().Build()
	if err != nil {
		return err
	}

	l, err := logger.New(cfg.LogLevel())
	if err != nil {
		return err
	}

	defer func() {
		_ = l.Sync()
	}()
	zap.ReplaceGlobals(l)

	db, err := sql.Open("pgx", cfg.DatabaseURI())
	if err != nil {
		return err
	}

	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			l.Error("ошибка закрытия соединения с БД", zap.Error(err))
		}
	}(db)

	if err := migrations.Up(db); err != nil {
		return err
	}

	validationEngine, err := validator.NewEngine()
	if err != nil {
		return err
	}

	pub := newPublisher(cfg, l)
	defer func() {
		if err := pub.Close(); err != nil {
			l.Error("ошибка закрытия Kafka writer", zap.Error(err))
		}
	}()

	lk, closeLock, err := newLocker(cfg, l)
	if err != nil {
		return err
	}

	defer closeLock()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		r         = chi.NewRouter()
		v         = validator.New(validationEngine)
		a         = security.NewAuthenticator(security.NewHMACSigner(cfg.HMACKey()), repository.NewToken(db))
		m         = metrics.New(reg)
		wg        = &sync.WaitGroup{}
		jobs      = make(chan entity.VerificationJob, queueSize)
		results   = make(chan entity.VerificationResult, queueSize)
		gateways  = gateway.NewRegistry().Register(gateway.FlutterwaveName, gateway.NewFlutterwaveFactory(gateway.FlutterwaveConfig{
			BaseURL:    cfg.FlutterwaveBaseURL(),
			SecretKey:  cfg.FlutterwaveSecretKey(),
			SecretHash: cfg.FlutterwaveSecretHash(),
		}))
		ur = repository.NewUser(db, cfg.DefaultCurrency())
		lr = repository.NewLedger(db)
		lg = repository.NewListing(db)
		ss = service.NewSettlement(lr, pub, m, l)
		pv = worker.NewPaymentVerifier(ctx, lr, gateways, jobs, results, wg, workersCount, cfg.VerifyInterval(), l)
		sw = worker.NewSettler(ss, results, jobs, wg, workersCount, cfg.VerifyInterval(), l)
		su = service.NewSignup(ur, security.NewArgonHasher(security.DefaultHashConfig()), a)
		ws = service.NewWallet(
			repository.NewWallet(db),
			ur,
			lr,
			gateways,
			ss,
			jobs,
			service.WalletOptions{Gateway: cfg.DefaultGateway(), RedirectURL: cfg.PaymentRedirectURL()},
			l,
		)
		cs = service.NewCheckout(
			lg,
			ur,
			lr,
			gateways,
			ss,
			jobs,
			m,
			service.CheckoutOptions{
				Fees:        entity.FeeSettings{Percent: cfg.PlatformFeePercent(), Flat: cfg.PlatformFeeFlat()},
				RedirectURL: cfg.PaymentRedirectURL(),
			},
			l,
		)
		hs = service.NewWebhook(gateways, repository.NewWebhookEvent(db), lk, ss, m, l)
		sh = handler.NewSignup(su, v)
		wh = handler.NewWallet(ws, a, v)
		lh = handler.NewListing(lg, a, v, cfg.DefaultCurrency())
		ch = handler.NewCheckout(cs, ws, a, v)
		hh = handler.NewWebhook(hs, cfg.DefaultGateway())
	)

	defer func() {
		stop()
		wg.Wait()
	}()

	pv.Do(ctx)
	sw.Do(ctx)

	r.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		middleware.Logger(l.Named("http")),
		chimiddleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins(),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Authorization"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)

	r.Handle("/metrics", metrics.Handler(reg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register/", sh.Register)
		r.Post("/users/login/", sh.Login)
		r.Post("/hooks/payment-webhook/", hh.Handle)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(a))

			r.Get("/wallet/", wh.Get)
			r.Get("/wallet/transactions/", wh.Transactions)
			r.Post("/wallet/deposit/", wh.Deposit)
			r.Post("/wallet/withdraw/", wh.Withdraw)
			r.Post("/wallet/transfer/", wh.Transfer)

			r.Post("/listings/", lh.Create)
			r.Get("/listings/{id}/", lh.Get)
			r.Post("/listings/checkout/{id}/", ch.Checkout)

			r.Post("/payments/{reference}/confirm/", ch.Confirm)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("ошибка остановки HTTP-сервера", zap.Error(err))
		}
	}()

	l.Info("сервер запущен",
		zap.String("address", cfg.ServerAddress()),
		zap.Strings("gateways", gateways.Names()),
	)

	return srv.ListenAndServe()
}

func newPublisher(cfg config.Config, l *zap.Logger) publisher {
	if len(cfg.KafkaBrokers()) == 0 {
		l.Info("брокеры Kafka не настроены, события о платежах не публикуются")

		return events.Nop{}
	}

	return events.NewKafkaPublisher(cfg.KafkaBrokers(), cfg.KafkaTopic())
}

func newLocker(cfg config.Config, l *zap.Logger) (locker, func(), error) {
	if cfg.RedisAddress() == "" {
		l.Info("Redis не настроен, блокировка уведомлений отключена")

		return lock.Nop{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	return lock.NewRedis(client, lockTTL, l.Named("lock")), func() {
		if err := client.Close(); err != nil {
			l.Error("ошибка закрытия соединения с Redis", zap.Error(err))
		}
	}, nil
}
