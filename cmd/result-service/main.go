package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/matka-admin-platform/internal/notice-service/pubsub"
	rcache "github.com/radieske/matka-admin-platform/internal/result-service/cache"
	httpapi "github.com/radieske/matka-admin-platform/internal/result-service/http"
	"github.com/radieske/matka-admin-platform/internal/result-service/producer"
	"github.com/radieske/matka-admin-platform/internal/result-service/reconcile"
	rrepo "github.com/radieske/matka-admin-platform/internal/result-service/repo"
	"github.com/radieske/matka-admin-platform/internal/settlement"
	sharedcache "github.com/radieske/matka-admin-platform/internal/shared/cache"
	"github.com/radieske/matka-admin-platform/internal/shared/config"
	"github.com/radieske/matka-admin-platform/internal/shared/db"
	"github.com/radieske/matka-admin-platform/internal/shared/kafka"
	"github.com/radieske/matka-admin-platform/internal/shared/logger"
	"github.com/radieske/matka-admin-platform/internal/shared/metrics"
	wrepo "github.com/radieske/matka-admin-platform/internal/wallet-service/repo"
)

func main() {
	cfg := config.Load("result-service")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(context.Background(), pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka: um writer por tópico de saída
	pub := &producer.KafkaPublisher{
		Results: kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicResultPublished),
		Settled: kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled),
		Failed:  kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementFailed),
		Live:    pubsub.NewRedisBroadcaster(redisClient, cfg.RedisNoticeChannel),
	}
	defer pub.Close()

	m := metrics.NewSettlement(prometheus.DefaultRegisterer)
	reconciled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_reconcile_markets_total",
		Help: "mercados revisitados pela varredura",
	}, []string{"result"})
	prometheus.MustRegister(reconciled)

	store := rrepo.NewPostgres(pg)
	engine := &settlement.Engine{
		Log:       log,
		Store:     store,
		Ledger:    wrepo.NewPostgres(pg),
		Locker:    rcache.SettlementLocker{L: sharedcache.NewLocker(redisClient)},
		Publisher: pub,
		Policy:    settlement.ParseSessionPolicy(cfg.OpenSessionPolicy),
		Location:  cfg.Location(),
		LockTTL:   cfg.SettlementLockTTL,
		OnBetSettled: func(f settlement.Family, o settlement.Outcome) {
			m.Bets.WithLabelValues(string(f), string(o)).Inc()
		},
		OnPass: func(f settlement.Family, result string) {
			m.Passes.WithLabelValues(string(f), result).Inc()
		},
	}
	log.Info("settlement engine ready",
		zap.String("open_session_policy", string(engine.Policy)),
		zap.String("timezone", engine.Location.String()))

	api := &httpapi.API{
		Log:      log,
		Engine:   engine,
		ReadRepo: store,
		Cache:    rcache.New(redisClient, cfg.SnapshotCacheTTL),
		Location: engine.Location,
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	rec := &reconcile.Reconciler{
		Log:     log.Named("reconcile"),
		Source:  store,
		Settler: engine,
		Grace:   5 * time.Minute,
		OnRun: func(markets, failed int) {
			reconciled.WithLabelValues("ok").Add(float64(markets - failed))
			reconciled.WithLabelValues("error").Add(float64(failed))
		},
	}

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort,
		pg.PingContext,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return rec.Start(gctx, cfg.ReconcileCron)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return apiSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("result-service stopped with error", zap.Error(err))
	}
	log.Info("result-service stopped")
}
