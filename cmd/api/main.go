package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"hai-map-go/internal/api"
	"hai-map-go/internal/config"
	"hai-map-go/internal/controller"
	"hai-map-go/internal/logger"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "hai-map-go").Info("starting service")

	cfg, err := config.Load(envOr("CONFIG_PATH", ""))
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	// both inputs must load before anything is served
	log.WithField("geo_path", cfg.GeoPath).WithField("data_path", cfg.DataPath).Info("loading inputs")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	data, err := controller.Load(ctx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("failed to load inputs")
	}
	log.WithField("records", len(data.Records)).WithField("features", len(data.Geo.Features)).Info("inputs loaded")

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewServer(controller.New(data, cfg)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
