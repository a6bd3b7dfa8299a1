package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_transport/internal/checkin"
	"school_transport/internal/config"
	"school_transport/internal/controllers"
	"school_transport/internal/geocoding"
	"school_transport/internal/logger"
	"school_transport/internal/middleware"
	"school_transport/internal/realtime"
	"school_transport/internal/routes"
	"school_transport/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	// Initialize structured logging to file
	if err := logger.Setup(cfg.Log.File, cfg.Log.Level); err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}
	gin.SetMode(cfg.Server.Mode)

	// Connect to the database
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	st := store.New(db)

	client := geocoding.NewClient(geocoding.ClientConfig{
		Endpoint:          cfg.Geocoder.Endpoint,
		UserAgent:         cfg.Geocoder.UserAgent,
		Timeout:           cfg.Geocoder.Timeout,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
		CacheSize:         cfg.Geocoder.CacheSize,
		CacheTTL:          cfg.Geocoder.CacheTTL,
	})
	geocoder := geocoding.NewService(client, geocoding.Address{
		City:    cfg.Geocoder.DefaultCity,
		Country: cfg.Geocoder.DefaultCountry,
	}, cfg.Sweep.BatchSize)
	geocoder.Register("stop", st.StopSource())
	geocoder.Register("student", st.StudentSource())

	hub := realtime.NewHub()
	defer hub.Close()

	limiter := middleware.NewRateLimiter(cfg.Checkin.RatePerSecond, cfg.Checkin.Burst)
	defer limiter.Stop()

	api := controllers.NewAPI(st, checkin.NewResolver(st, hub), geocoder, hub)
	r, err := routes.SetupRouter(api, limiter.Handler())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up router")
	}

	var handler http.Handler = middleware.EnableCORS(cfg.Server.AllowedOrigins, r)
	if cfg.Server.Compression {
		handler = middleware.Compress(middleware.DefaultCompressionConfig(), handler)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go geocoding.NewScheduler(geocoder, cfg.Sweep.Interval).Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}
