package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sciforge/depository/pkg/common/config"
	"github.com/sciforge/depository/pkg/common/database"
	"github.com/sciforge/depository/pkg/common/kafka"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/doi"
	"github.com/sciforge/depository/pkg/indexer"
	"github.com/sciforge/depository/pkg/observability/metrics"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/records"
	"github.com/sciforge/depository/pkg/worker"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	rdb := database.GetRedis()

	pids := pidstore.NewStore(db)

	registry, err := records.NewRegistry(cfg.LicenseFile, cfg.CommunityFile)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load license/community registries")
	}
	recs := records.NewStore(db, registry)

	box := outbox.New(db)
	if err := box.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate outbox tables")
	}

	datacite := doi.NewDataCiteClient(cfg.DataCiteURL, cfg.DataCiteUser, cfg.DataCitePassword, cfg.RegistrarTimeout)
	selector := doi.NewSelector(cfg.DOIPrefix, cfg.DOIBannedPrefixes, datacite)
	index := indexer.NewHTTPIndexer(cfg.SearchIndexURL, rdb)

	pidEvents := kafka.NewProducer(cfg.PIDActionsTopic)
	defer pidEvents.Close()
	indexEvents := kafka.NewProducer(cfg.IndexTopic)
	defer indexEvents.Close()
	dlq := kafka.NewProducer(cfg.DLQTopic)
	defer dlq.Close()

	producers := map[string]*kafka.Producer{
		cfg.PIDActionsTopic: pidEvents,
		cfg.IndexTopic:      indexEvents,
	}
	w := worker.New(db, box, pids, recs, selector, index, producers, dlq,
		cfg.OutboxPollInterval, cfg.RegistrarRetryBase, cfg.RegistrarMaxRetry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)

	// Periodically repair index drift.
	reconciler := indexer.NewReconciler(recs, index)
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.ReconcileSchedule, func() {
		n, err := reconciler.Run(ctx)
		if err != nil {
			logger.Log.WithError(err).Error("index reconcile run failed")
			return
		}
		if n > 0 {
			metrics.IndexReconciled.Add(float64(n))
			logger.Log.WithField("records", n).Info("index reconciled")
		}
	})
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid reconcile schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Outbox Worker started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Outbox Worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Outbox Worker stopped")
}
