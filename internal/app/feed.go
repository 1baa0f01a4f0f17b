// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/imu_dashboard/internal/config"
	"github.com/relabs-tech/imu_dashboard/internal/feed"
	"github.com/relabs-tech/imu_dashboard/internal/sensors"
)

// newFeedRouter serves the telemetry endpoint the dashboards poll.
func newFeedRouter(store *feed.Store) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/imu", feed.Handler(store)).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// runSourceFeed refreshes store from src every interval until ctx is done.
// A partial snapshot is still served.
func runSourceFeed(ctx context.Context, src feed.Source, store *feed.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := src.Next()
		if err != nil {
			log.Printf("feed: source error: %v", err)
		}
		if snap != nil {
			store.Set(snap)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunFeed serves GET /api/imu from generated data, raw IMU samples read from
// MQTT, or MPU9250s on SPI, until SIGINT or SIGTERM.
func RunFeed() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := feed.NewStore()

	switch cfg.FeedMode {
	case config.FeedModeMQTT:
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker).
			SetClientID(cfg.MQTTClientIDFeed)

		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return token.Error()
		}
		defer client.Disconnect(250)
		log.Printf("feed: connected to MQTT broker at %s", cfg.MQTTBroker)

		h := &feed.RawHandler{Store: store, AccelLSB: cfg.FeedAccelLSB, GyroLSB: cfg.FeedGyroLSB}
		if err := feed.SubscribeRaw(client, cfg.FeedTopics, h); err != nil {
			return err
		}
	case config.FeedModeHardware:
		readers := make([]feed.RawReader, 0, len(cfg.FeedDevices))
		for _, d := range cfg.FeedDevices {
			mpu, err := sensors.OpenMPU9250(d)
			if err != nil {
				return err
			}
			readers = append(readers, mpu)
		}
		log.Printf("feed: reading %d IMUs every %dms", len(readers), cfg.FeedInterval)
		src := feed.NewHardwareSource(readers, cfg.FeedAccelLSB, cfg.FeedGyroLSB)
		go runSourceFeed(ctx, src, store, config.Interval(cfg.FeedInterval))

	default:
		log.Printf("feed: generating %d mock units every %dms", cfg.FeedUnits, cfg.FeedInterval)
		go runSourceFeed(ctx, feed.NewMockSource(cfg.FeedUnits), store, config.Interval(cfg.FeedInterval))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.FeedPort),
		Handler: handlers.LoggingHandler(os.Stdout, newFeedRouter(store)),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("feed server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("feed: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
