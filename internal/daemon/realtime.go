// Package daemon wires the radiowatch components into the long-running
// survey process: datastore, retention sweep, scan schedulers, identity
// resolution, device publishing, uplink and the HTTP surfaces.
package daemon

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/santiway/radiowatch/internal/api"
	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
	"github.com/santiway/radiowatch/internal/logging"
	"github.com/santiway/radiowatch/internal/mqtt"
	"github.com/santiway/radiowatch/internal/observability"
	"github.com/santiway/radiowatch/internal/resolver"
	"github.com/santiway/radiowatch/internal/retention"
	"github.com/santiway/radiowatch/internal/scanner"
	"github.com/santiway/radiowatch/internal/uplink"
)

// uplinkInterval is how often the uploader drains unsent rows.
const uplinkInterval = time.Minute

// Run starts the survey daemon and blocks until SIGINT or SIGTERM.
func Run(settings *conf.Settings) error {
	log := logging.ForService("daemon")

	if settings.Main.Log.Enabled {
		fileLog, closeLog, err := logging.NewFileLogger(
			settings.Main.Log.Path, "daemon", slog.LevelInfo, settings.Main.Log.MaxSize)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeLog(); err != nil {
				log.Error("log file close failed", "error", err)
			}
		}()
		log = fileLog
	}

	store := datastore.New(settings)
	if store == nil {
		return errors.Newf("no database output enabled").
			Component("daemon").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("datastore close failed", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	// Retention runs once, before any scheduler writes new rows.
	sweeper := retention.New(store, retention.WithMetrics(metrics.Datastore))
	if removed, err := sweeper.SweepFromSettings(settings); err != nil {
		// Losing the sweep is not fatal; stale rows just live longer.
		log.Error("retention sweep failed", "error", err)
	} else if removed > 0 {
		log.Info("retention sweep complete", "removed", removed)
	}

	session := settings.Survey.Session
	if session == "" {
		session = conf.DefaultSession
	}
	if err := store.CreateSession(session); err != nil {
		return err
	}

	resolverOpts := []resolver.Option{resolver.WithMetrics(metrics.Resolver)}
	var mqttClient mqtt.Client
	if settings.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(settings, metrics.MQTT)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mqttClient.Connect(ctx); err != nil {
			log.Warn("initial MQTT connect failed, continuing without broker", "error", err)
		}
		cancel()
		defer mqttClient.Disconnect()
		resolverOpts = append(resolverOpts, resolver.WithPublisher(mqttClient))
	}
	sink := resolver.New(store, resolverOpts...)

	origin := &detection.Location{
		Latitude:  settings.Survey.Latitude,
		Longitude: settings.Survey.Longitude,
	}

	schedulers, err := buildSchedulers(settings, sink, metrics)
	if err != nil {
		return err
	}
	for kind, s := range schedulers {
		if s.Settings().Enabled {
			s.Start(session, origin)
		} else {
			log.Info("scanner disabled", "kind", kind)
		}
	}
	defer func() {
		for _, s := range schedulers {
			s.Stop()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	quit := make(chan struct{})

	if settings.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quit)
	}

	if settings.WebServer.Enabled {
		controls := make(map[string]api.SchedulerControl, len(schedulers))
		for kind, s := range schedulers {
			controls[kind] = s
		}
		controller := api.New(settings, store, controls)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := controller.Start(ctx); err != nil {
				log.Error("http server stopped", "error", err)
			}
		}()
	}

	if settings.Uplink.Enabled {
		uploader, err := uplink.New(settings, store, metrics.Uplink)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			runUplinkLoop(ctx, uploader)
		}()
	}

	log.Info("radiowatch running", "session", session)
	<-ctx.Done()
	log.Info("shutdown requested")

	close(quit)
	wg.Wait()
	return nil
}

// buildSchedulers creates one scheduler per sensor type over the spool
// replay sources. A missing spool disables scanning but leaves the rest of
// the daemon up.
func buildSchedulers(settings *conf.Settings, sink scanner.Sink, m *observability.Metrics) (map[string]*scanner.Scheduler, error) {
	log := logging.ForService("daemon")
	schedulers := make(map[string]*scanner.Scheduler, len(detection.Kinds()))

	for _, kind := range detection.Kinds() {
		cfg, err := settings.ScannerSettings(string(kind))
		if err != nil {
			return nil, err
		}

		source, err := scanner.NewReplaySource(kind, settings.Survey.SpoolPath)
		if err != nil {
			if errors.Is(err, scanner.ErrUnavailable) {
				log.Warn("observation source unavailable, scanner not built",
					"kind", string(kind), "spool", settings.Survey.SpoolPath)
				continue
			}
			return nil, err
		}

		s, err := scanner.NewScheduler(source, sink, cfg, m.Scanner)
		if err != nil {
			return nil, err
		}
		schedulers[string(kind)] = s
	}
	return schedulers, nil
}

// runUplinkLoop drains unsent rows on a fixed cadence until the context is
// cancelled.
func runUplinkLoop(ctx context.Context, uploader *uplink.Uploader) {
	log := logging.ForService("uplink")
	ticker := time.NewTicker(uplinkInterval)
	defer ticker.Stop()

	for {
		if err := uploader.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("uplink run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
