package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrail/api-go/config"
	"github.com/ecotrail/api-go/logging"
	"github.com/ecotrail/api-go/routes"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/storage"
	"github.com/ecotrail/api-go/store"
	"github.com/ecotrail/api-go/websocket"
)

const shutdownTimeout = 15 * time.Second

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logging.Warn().Msg("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	s, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize store")
	}

	var images services.ImageResolver
	if r := storage.NewImageResolver(cfg.Images); r != nil {
		images = r
	}

	catalog := services.NewCatalog(s, images)
	ledger := services.NewLedger(s)
	dispatcher := services.NewDispatcher(catalog, ledger, cfg.DefaultSearchRadiusKm)
	wsHandler := websocket.NewHandler(dispatcher, websocket.Options{
		MessagesPerSecond: cfg.WSMessagesPerSecond,
		Burst:             cfg.WSBurst,
	})

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	routes.SetupRoutes(r, routes.Dependencies{
		Config:     cfg,
		Store:      s,
		Catalog:    catalog,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		WebSocket:  wsHandler,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Fatal().Err(err).Msg("server stopped with error")
	}
	logging.Info().Msg("server stopped")
}
