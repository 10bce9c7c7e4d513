package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	chttp "github.com/radieske/sports-bet-settlement-poc/internal/cashout/http"
	"github.com/radieske/sports-bet-settlement-poc/internal/cashout/offers"
	"github.com/radieske/sports-bet-settlement-poc/internal/cashout/valuer"
	"github.com/radieske/sports-bet-settlement-poc/internal/notifier"
	"github.com/radieske/sports-bet-settlement-poc/internal/scores"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/store"
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

	// Métricas da API de cash-out
	offersServed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "cashout_offers_total", Help: "ofertas por resultado"}, []string{"result"})
	accepts := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "cashout_accepts_total", Help: "aceites por resultado"}, []string{"result"})
	prometheus.MustRegister(offersServed, accepts)

	repo := store.NewPostgres(pg)
	scoreClient := scores.NewClient(cfg.ScoresBaseURL, log)

	// cache de ofertas e estado ao vivo com vida atrelada a esta instância
	offerCache := offers.NewCache(redisClient, cfg.OfferTTL, 5*time.Second)

	api := chttp.NewServer(log, repo, scoreClient, valuer.New(), offerCache,
		notifier.NewKafkaNotifier(settledWriter, dlqWriter), cfg.OfferTTL)
	api.OnOffer = func(result string) { offersServed.WithLabelValues(result).Inc() }
	api.OnAccept = func(result string) { accepts.WithLabelValues(result).Inc() }

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Info("cashout-service listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("cashout-service stopped")
}
