package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/darkweak/offline/configuration"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/darkweak/offline/pkg/middleware"
	"github.com/darkweak/offline/pkg/network"
	"github.com/darkweak/offline/pkg/registration"
	"github.com/darkweak/offline/pkg/storage"
	"github.com/darkweak/offline/pkg/worker"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func register(ctx context.Context, c *configuration.Configuration, r *registration.Registration) {
	wc, err := worker.ConfigFromConfiguration(c)
	if err != nil {
		c.GetLogger().Error("Invalid worker configuration", zap.Error(err))
		return
	}
	if _, err = r.Register(ctx, wc); err != nil {
		c.GetLogger().Error("The registration failed, serving without a new controller", zap.String("version", wc.Version), zap.Error(err))
	}
}

func main() {
	path := flag.String("config", "configuration.yml", "path to the configuration file")
	flag.Parse()

	c, err := configuration.GetConfiguration(*path)
	if err != nil {
		zap.NewExample().Fatal("Impossible to load the configuration", zap.String("path", *path), zap.Error(err))
	}
	logger := c.GetLogger()
	defer func() { _ = logger.Sync() }()

	storer, err := storage.NewStorage(c)
	if err != nil {
		logger.Fatal("Impossible to initialize the storage", zap.Error(err))
	}
	upstream, err := network.NewUpstream(c.GetOrigin(), nil, logger)
	if err != nil {
		logger.Fatal("Invalid origin", zap.String("origin", c.GetOrigin()), zap.Error(err))
	}
	r := registration.New(cachestorage.New(storer, logger), upstream, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	register(ctx, c, r)

	var current atomic.Pointer[middleware.OfflineHandler]
	current.Store(middleware.NewOfflineHandler(c, r))

	go func() {
		if e := configuration.Watch(ctx, *path, c, func(next *configuration.Configuration) {
			previous := current.Load().Configuration
			if next.GetOffline().GetVersion() != previous.GetOffline().GetVersion() {
				register(ctx, next, r)
			}
			current.Store(middleware.NewOfflineHandler(next, r))
			logger.Info("Configuration reloaded", zap.String("version", next.GetOffline().GetVersion()))
		}); e != nil {
			logger.Warn("The configuration watcher stopped", zap.Error(e))
		}
	}()

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP, chimiddleware.Recoverer)
	router.Handle("/*", http.HandlerFunc(func(rw http.ResponseWriter, rq *http.Request) {
		current.Load().ServeHTTP(rw, rq)
	}))

	server := &http.Server{
		Addr:              c.GetListen(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Offline proxy listening", zap.String("addr", server.Addr), zap.String("origin", c.GetOrigin()))
		if e := server.ListenAndServe(); e != nil && e != http.ErrServerClosed {
			logger.Error("The server stopped", zap.Error(e))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if e := server.Shutdown(shutdownCtx); e != nil {
		logger.Warn("Impossible to shutdown the server gracefully", zap.Error(e))
	}
	if e := r.Close(shutdownCtx); e != nil {
		logger.Warn("Impossible to retire the controller", zap.Error(e))
	}
	if d, ok := storer.(interface{ Destruct() error }); ok {
		if e := d.Destruct(); e != nil {
			logger.Warn("Impossible to stop the storage", zap.Error(e))
		}
	}
	logger.Info("Offline proxy stopped")
}
