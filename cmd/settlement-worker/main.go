package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement-poc/internal/notifier"
	"github.com/radieske/sports-bet-settlement-poc/internal/scores"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/orchestrator"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/store"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/trigger"
	sharedcache "github.com/radieske/sports-bet-settlement-poc/internal/shared/cache"
	"github.com/radieske/sports-bet-settlement-poc/internal/shared/config"
	"github.com/radieske/sports-bet-settlement-poc/internal/shared/db"
	"github.com/radieske/sports-bet-settlement-poc/internal/shared/kafka"
	"github.com/radieske/sports-bet-settlement-poc/internal/shared/logger"
	"github.com/radieske/sports-bet-settlement-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Inicializa dependências: Postgres, Redis e Kafka
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
	defer dlqWriter.Close()

	// Métricas Prometheus da liquidação
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_bets_settled_total", Help: "apostas liquidadas por status"}, []string{"status"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_conflicts_total", Help: "liquidações concorrentes detectadas (no-op)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	sweeps := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_trigger_sweeps_total", Help: "iterações do completion trigger"})
	triggered := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_trigger_fired_total", Help: "liquidações escopadas disparadas por jogo finalizado"})
	prometheus.MustRegister(settled, conflicts, errorsBy, sweeps, triggered)

	repo := store.NewPostgres(pg)
	scoreClient := scores.NewClient(cfg.ScoresBaseURL, log)
	notif := notifier.NewKafkaNotifier(settledWriter, dlqWriter)

	orch := &orchestrator.Orchestrator{
		Log:          log,
		Store:        repo,
		Scores:       scoreClient,
		Notifier:     notif,
		Sports:       cfg.Sports,
		LookbackDays: cfg.LookbackDays,

		OnSettled:  func(status string) { settled.WithLabelValues(status).Inc() },
		OnConflict: func() { conflicts.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	trg := &trigger.Trigger{
		Log:          log,
		Pending:      repo,
		Scores:       scoreClient,
		Settler:      orch,
		Recent:       trigger.NewRedisRecentFinals(redisClient, cfg.FinalGameTTL),
		Interval:     cfg.TriggerInterval,
		Sports:       cfg.Sports,
		LookbackDays: cfg.LookbackDays,

		OnSweep:     func() { sweeps.Inc() },
		OnTriggered: func() { triggered.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues("trigger_" + stage).Inc() },
	}

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// O trigger é a otimização de latência; a varredura periódica abaixo é
	// a rede de segurança de correção.
	trg.Start(ctx)

	log.Info("settlement-worker started",
		zap.Duration("sweep", cfg.SweepInterval),
		zap.Duration("trigger", cfg.TriggerInterval),
	)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	// primeira varredura na subida, depois no intervalo
	runSweep(ctx, log, orch)
	for {
		select {
		case <-ctx.Done():
			trg.Stop()
			log.Info("settlement-worker stopped")
			return
		case <-ticker.C:
			runSweep(ctx, log, orch)
		}
	}
}

// runSweep roda uma varredura completa com contenção de erro: falha fatal
// (banco fora) é logada e fica pra próxima rodada do ticker.
func runSweep(ctx context.Context, log *zap.Logger, orch *orchestrator.Orchestrator) {
	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("sweep failed, will retry next interval", zap.Error(err))
	}
}
