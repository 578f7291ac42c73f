package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	configPath      = flag.String("config", "config.yml", "path to YAML config")
	httpPort        = flag.Int("port", 0, "HTTP port (overrides config)")
	shutdownTimeout = flag.Duration("shutdown_timeout", 10*time.Second, "HTTP server shutdown timeout")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *httpPort != 0 {
		cfg.Server.Port = *httpPort
	}

	metrics := newTrackerMetrics(prometheus.NewRegistry())
	hub := newBroadcastHub(nil, time.Now, metrics)
	store := newEntityStore(cfg.Tracking.HistoryLimit, hub, metrics)
	hub.entities = store

	auth := newAuthenticator(cfg.Users)
	sweeper := newStaleSweeper(store, hub, cfg.Tracking.sweepInterval(), cfg.Tracking.entityTimeout())

	mux := http.NewServeMux()
	registerRoutes(mux, newWSHandler(store, hub, auth), metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server starting on http://localhost:%d/", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	bctx, bcancel := context.WithCancel(context.Background())
	go sweeper.run(bctx)

	if cfg.Feed.VehiclePositionsURL != "" {
		feed := newGtfsRtFeedSource(cfg.Feed.VehiclePositionsURL, time.Duration(cfg.Feed.TimeoutSecs)*time.Second)
		poller := newFeedPoller(feed, store, time.Duration(cfg.Feed.PollIntervalSecs)*time.Second)
		go poller.run(bctx)
		log.Printf("polling vehicle feed %s", cfg.Feed.VehiclePositionsURL)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown initiated...")

	bcancel()

	ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Printf("HTTP server shut down successfully")
	}
}
