package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"loan-predictor/config"
	"loan-predictor/domain"
	httpLayer "loan-predictor/http"
	"loan-predictor/logger"
	"loan-predictor/model"
	"loan-predictor/observability"
	"loan-predictor/repository"
	"loan-predictor/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewStructured("info", "json").Error("failed to load configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	defer log.Sync()

	classifier, err := model.Load(cfg.Model.Path)
	if err != nil {
		// Without a model nothing can be served.
		log.WithError(err).Error("model unavailable, exiting", map[string]interface{}{"path": cfg.Model.Path})
		os.Exit(1)
	}
	meta := classifier.Metadata()
	log.Info("model loaded", map[string]interface{}{
		"name":     meta.Name,
		"version":  meta.Version,
		"checksum": meta.Checksum,
	})

	obs := observability.New(cfg.App.Name, log)

	opts := []service.Option{service.WithObservability(obs)}
	cache, closeCache, err := repository.NewCacheRepository(context.Background(), cfg.Cache, cfg.Redis)
	if err != nil {
		log.Warn("outcome cache unavailable, predictions will not be memoized", map[string]interface{}{
			"driver": cfg.Cache.Driver,
			"error":  err.Error(),
		})
	}
	defer closeCache()
	if cache != nil {
		opts = append(opts, service.WithCache(cache, classifier.Checksum(), cfg.Cache.TTL))
	}

	labels := domain.LabelMapping{Good: cfg.Model.Labels.Good, Bad: cfg.Model.Labels.Bad}
	predictor, err := service.NewPredictorService(classifier, labels, log, opts...)
	if err != nil {
		log.WithError(err).Error("model unavailable, exiting", map[string]interface{}{"path": cfg.Model.Path})
		os.Exit(1)
	}

	var limiter *httpLayer.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	router := httpLayer.NewRouter(httpLayer.RouterDeps{
		Predictor: predictor,
		Model:     classifier,
		Limiter:   limiter,
		Log:       log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.WithError(err).Error("error starting server", nil)
		return
	case sig := <-quit:
		log.Info("shutting down server", map[string]interface{}{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during server shutdown", nil)
	}
	if err := obs.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("error shutting down observability", nil)
	}

	log.Info("server exited", nil)
}
