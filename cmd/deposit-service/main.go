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
	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/config"
	"github.com/sciforge/depository/pkg/common/database"
	"github.com/sciforge/depository/pkg/common/kafka"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/deposit"
	"github.com/sciforge/depository/pkg/doi"
	"github.com/sciforge/depository/pkg/httpapi"
	"github.com/sciforge/depository/pkg/observability/metrics"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/records"
	"github.com/sciforge/depository/pkg/sipstore"
	"github.com/sciforge/depository/pkg/versioning"
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
	if err := pids.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate pid tables")
	}

	registry, err := records.NewRegistry(cfg.LicenseFile, cfg.CommunityFile)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load license/community registries")
	}
	recs := records.NewStore(db, registry)
	if err := recs.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate record tables")
	}

	var backend blobstore.Backend
	if cfg.BlobBackend == "s3" {
		backend, err = blobstore.NewS3Backend(context.Background(), cfg)
	} else {
		backend, err = blobstore.NewFSBackend(cfg.BlobDir)
	}
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to initialize blob backend")
	}
	blobs := blobstore.NewStore(db, backend, cfg.BlobChecksum, cfg.MaxUploadBytes)
	if err := blobs.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate file tables")
	}

	sips := sipstore.NewStore(db)
	if err := sips.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate sip tables")
	}

	box := outbox.New(db)
	if err := box.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate outbox tables")
	}

	graph := versioning.NewGraph(db, pids, rdb)
	datacite := doi.NewDataCiteClient(cfg.DataCiteURL, cfg.DataCiteUser, cfg.DataCitePassword, cfg.RegistrarTimeout)
	selector := doi.NewSelector(cfg.DOIPrefix, cfg.DOIBannedPrefixes, datacite)

	svc := deposit.NewService(db, pids, blobs, recs, sips, graph, selector, box, deposit.Options{
		SiteURL:    cfg.SiteURL,
		OAIDomain:  cfg.OAIDomain,
		PIDTopic:   cfg.PIDActionsTopic,
		IndexTopic: cfg.IndexTopic,
	})
	if err := svc.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate deposition tables")
	}

	depositHandler := deposit.NewHTTPHandler(svc, cfg.MaxUploadBytes, cfg.PublishBudget)
	recordHandler := records.NewHTTPHandler(recs, pids, blobs)

	var auth *httpapi.OIDCAuthenticator
	if cfg.OIDCIssuer != "" {
		auth, err = httpapi.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to configure OIDC")
		}
	} else {
		logger.Log.Warn("OIDC not configured, deposit API is unauthenticated")
	}

	router := mux.NewRouter()
	router.Use(httpapi.Recovery, httpapi.Logging)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	depositAPI := api.NewRoute().Subrouter()
	if auth != nil {
		depositAPI.Use(httpapi.Authenticate(auth))
	}
	depositHandler.Register(depositAPI)

	recordsAPI := api.NewRoute().Subrouter()
	recordsAPI.Use(httpapi.OptionalAuthenticate(auth))
	recordHandler.Register(recordsAPI)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Deposit Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	// React to registrar outcomes announced by the outbox worker.
	consumer := kafka.NewConsumer(cfg.PIDActionsTopic, cfg.KafkaGroupID)
	defer consumer.Close()
	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
			depid, ok := event.Data["depid"].(float64)
			if !ok {
				return nil
			}
			switch event.Type {
			case worker.EventDOIRegistered, worker.EventDOIUpdated:
				return svc.ClearError(ctx, int64(depid))
			case worker.EventDOIFailed:
				reason, _ := event.Data["error"].(string)
				return svc.MarkError(ctx, int64(depid), reason)
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("pid event consumer stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Deposit Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Deposit Service stopped")
}
