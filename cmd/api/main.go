package main

import (
	"context"
	"io"
	"log"
	"os/signal"
	"syscall"

	"github.com/widegest/printflow/internal/config"
	"github.com/widegest/printflow/internal/logging"
	"github.com/widegest/printflow/internal/poller"
	miniorepo "github.com/widegest/printflow/internal/repository/minio"
	"github.com/widegest/printflow/internal/repository/postgres"
	"github.com/widegest/printflow/internal/service"
	transport "github.com/widegest/printflow/internal/transport/http"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("Warning: logstash writer disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(log.Writer(), writer))
		}
	}

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrating database: %v", err)
	}
	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()

	minioClient, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		log.Fatalf("connecting to object storage: %v", err)
	}
	feed := miniorepo.NewFeed(minioClient, cfg.FeedBucket, cfg.FeedIncomingPrefix, cfg.FeedProcessedPrefix, cfg.FeedFailedPrefix)
	assetStore := miniorepo.NewAssetStore(minioClient, cfg.AssetBucket)

	orderRepo := postgres.NewOrderRepo(db)
	assetRepo := postgres.NewAssetRepo(db)
	storeRepo := postgres.NewStoreRepo(db)
	productRepo := postgres.NewProductRepo(db)
	machineRepo := postgres.NewMachineRepo(db)
	flowRepo := postgres.NewFlowRepo(db)
	endpointRepo := postgres.NewEndpointRepo(db)
	switchJobRepo := postgres.NewSwitchJobRepo(db)
	importErrorRepo := postgres.NewImportErrorRepo(db)

	lineSvc := service.NewLineService(orderRepo, flowRepo, endpointRepo)
	assetSvc := service.NewAssetService(assetRepo, orderRepo, storeRepo, assetStore, cfg.DispatchTimeout)
	dispatchSvc := service.NewDispatchService(orderRepo, storeRepo, productRepo, machineRepo, switchJobRepo, lineSvc, service.DispatchConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		Timeout:       cfg.DispatchTimeout,
		Simulate:      cfg.DispatchSimulate,
	})
	scheduler := service.NewDispatchScheduler(dispatchSvc, cfg.DispatchTimeout)
	lineSvc.SetDelayCanceller(scheduler)
	callbackSvc := service.NewCallbackService(orderRepo, switchJobRepo, lineSvc)
	ingestSvc := service.NewIngestService(orderRepo, storeRepo, productRepo, importErrorRepo, assetSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feedPoller := poller.New(feed, ingestSvc, cfg.PollInterval)
	if cfg.AutoDispatchDelay > 0 {
		feedPoller.EnableAutoDispatch(scheduler, cfg.AutoDispatchDelay)
	}
	go feedPoller.Run(ctx)

	e := transport.NewRouter(cfg.AllowOrigins, db, miniorepo.NewPinger(minioClient, cfg.FeedBucket))
	transport.RegisterCallbacks(e, callbackSvc)
	transport.RegisterOrders(e, orderRepo, lineSvc, dispatchSvc, scheduler)
	transport.RegisterAssets(e, assetSvc)
	transport.RegisterConfig(e, storeRepo, productRepo, machineRepo, flowRepo, endpointRepo)
	transport.RegisterImportErrors(e, importErrorRepo)

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
