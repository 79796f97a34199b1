package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/matka-admin-platform/internal/settlement-report/consumer"
	"github.com/radieske/matka-admin-platform/internal/settlement-report/repository"
	"github.com/radieske/matka-admin-platform/internal/shared/config"
	"github.com/radieske/matka-admin-platform/internal/shared/db"
	"github.com/radieske/matka-admin-platform/internal/shared/kafka"
	"github.com/radieske/matka-admin-platform/internal/shared/logger"
	"github.com/radieske/matka-admin-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load("settlement-report-worker")
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

	// Consumer group próprio: cada bet_settled conta uma vez no agregado
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, cfg.ReportWorkerConsumerGrp)
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
	defer dlq.Close()

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_report_messages_consumed_total", Help: "mensagens consumidas"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_report_applied_total", Help: "apostas somadas ao agregado diário"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_report_duplicates_total", Help: "reentregas ignoradas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_report_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, applied, duplicates, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        repository.NewPostgresRepo(pg),
		DLQ:         dlq,
		Location:    cfg.Location(),
		OnConsumed:  func() { consumed.Inc() },
		OnApplied:   func() { applied.Inc() },
		OnDuplicate: func() { duplicates.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-report-worker started",
		zap.String("topic", cfg.TopicBetSettled), zap.String("group", cfg.ReportWorkerConsumerGrp))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("settlement-report-worker stopped")
}
