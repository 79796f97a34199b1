package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	noticehttp "github.com/radieske/matka-admin-platform/internal/notice-service/http"
	"github.com/radieske/matka-admin-platform/internal/notice-service/pubsub"
	"github.com/radieske/matka-admin-platform/internal/notice-service/repo"
	"github.com/radieske/matka-admin-platform/internal/notice-service/ws"
	"github.com/radieske/matka-admin-platform/internal/shared/cache"
	"github.com/radieske/matka-admin-platform/internal/shared/config"
	"github.com/radieske/matka-admin-platform/internal/shared/db"
	"github.com/radieske/matka-admin-platform/internal/shared/logger"
	"github.com/radieske/matka-admin-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load("notice-service")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(context.Background(), pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort,
		pg.PingContext,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hub WS: o painel admin roda atrás do gateway, qualquer origem é aceita
	hub := ws.NewHub(log.Named("ws"), func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, redisClient, cfg.RedisNoticeChannel, hub)

	srv := noticehttp.NewServer(log,
		repo.NewPostgres(pg),
		pubsub.NewRedisBroadcaster(redisClient, cfg.RedisNoticeChannel),
		hub.HandleWS,
	)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("notice-service stopped")
}
