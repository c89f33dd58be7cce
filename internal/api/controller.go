// Package api exposes the query surface over HTTP: sessions, raw
// detections, canonical devices and scanner configuration.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/logging"
)

// devicesCacheKey and its TTL bound repeated canonical-table scans from
// polling clients.
const (
	devicesCacheKey = "canonical-devices"
	devicesCacheTTL = 5 * time.Second
)

// SchedulerControl is the slice of the scan scheduler the API needs.
type SchedulerControl interface {
	Settings() conf.ScannerSettings
	UpdateSettings(cfg conf.ScannerSettings) error
	IsRunning() bool
	Session() string
}

// Controller wires the HTTP routes to the datastore and the schedulers.
type Controller struct {
	Echo       *echo.Echo
	store      datastore.Interface
	schedulers map[string]SchedulerControl
	cache      *gocache.Cache
	listen     string
	log        *slog.Logger
}

// New builds the HTTP controller. The schedulers map is keyed by sensor
// type name ("wifi", "bluetooth", "cell") and may be nil for a
// query-only server.
func New(settings *conf.Settings, store datastore.Interface, schedulers map[string]SchedulerControl) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:       e,
		store:      store,
		schedulers: schedulers,
		cache:      gocache.New(devicesCacheTTL, time.Minute),
		listen:     settings.WebServer.Listen,
		log:        logging.ForService("api"),
	}
	c.registerRoutes()
	return c
}

func (c *Controller) registerRoutes() {
	v1 := c.Echo.Group("/api/v1")

	v1.GET("/sessions", c.listSessions)
	v1.POST("/sessions", c.createSession)
	v1.DELETE("/sessions/:name", c.deleteSession)

	v1.GET("/sessions/:session/detections", c.listDetections)
	v1.PATCH("/sessions/:session/detections/triage", c.setTriageStatus)

	v1.GET("/devices", c.listDevices)
	v1.DELETE("/devices", c.clearDevices)

	v1.GET("/scanners", c.listScanners)
	v1.PATCH("/scanners/:kind", c.updateScanner)

	v1.GET("/healthz", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Start runs the HTTP server until the context is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		c.log.Info("http server starting", "listen", c.listen)
		errChan <- c.Echo.Start(c.listen)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.Echo.Shutdown(shutdownCtx)
	}
}
