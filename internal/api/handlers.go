// handlers.go: route handlers for the v1 API.
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
)

// sessionInfo is one entry of the session listing.
type sessionInfo struct {
	Name       string `json:"name"`
	Detections int64  `json:"detections"`
	Protected  bool   `json:"protected"`
}

func (c *Controller) listSessions(ctx echo.Context) error {
	sessions, err := c.store.ListSessions()
	if err != nil {
		return c.serverError(ctx, err)
	}

	infos := make([]sessionInfo, 0, len(sessions))
	for _, name := range sessions {
		count, err := c.store.CountDetections(name)
		if err != nil {
			return c.serverError(ctx, err)
		}
		infos = append(infos, sessionInfo{
			Name:       name,
			Detections: count,
			Protected:  name == protectedSessionName(),
		})
	}
	return ctx.JSON(http.StatusOK, infos)
}

type createSessionRequest struct {
	Name string `json:"name"`
}

func (c *Controller) createSession(ctx echo.Context) error {
	var req createSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if err := c.store.CreateSession(req.Name); err != nil {
		if errors.Is(err, datastore.ErrInvalidSessionName) {
			return ctx.JSON(http.StatusBadRequest, errorBody(err.Error()))
		}
		return c.serverError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

func (c *Controller) deleteSession(ctx echo.Context) error {
	name := ctx.Param("name")
	err := c.store.DeleteSession(name)
	switch {
	case err == nil:
		return ctx.NoContent(http.StatusNoContent)
	case errors.Is(err, datastore.ErrProtectedSession):
		return ctx.JSON(http.StatusConflict, errorBody("the default session cannot be deleted"))
	case errors.Is(err, datastore.ErrSessionNotFound):
		return ctx.JSON(http.StatusNotFound, errorBody("session not found"))
	case errors.Is(err, datastore.ErrInvalidSessionName):
		return ctx.JSON(http.StatusBadRequest, errorBody(err.Error()))
	default:
		return c.serverError(ctx, err)
	}
}

func (c *Controller) listDetections(ctx echo.Context) error {
	session := ctx.Param("session")
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	offset, _ := strconv.Atoi(ctx.QueryParam("offset"))

	rows, err := c.store.GetDetections(session, limit, offset)
	if err != nil {
		if errors.Is(err, datastore.ErrSessionNotFound) ||
			errors.Is(err, datastore.ErrInvalidSessionName) {
			return ctx.JSON(http.StatusNotFound, errorBody("session not found"))
		}
		return c.serverError(ctx, err)
	}

	dets := make([]detection.RawDetection, 0, len(rows))
	for i := range rows {
		dets = append(dets, rows[i].ToDetection())
	}
	return ctx.JSON(http.StatusOK, dets)
}

type triageRequest struct {
	Kind       string `json:"kind"`
	NaturalKey string `json:"naturalKey"`
	Status     string `json:"status"`
}

func (c *Controller) setTriageStatus(ctx echo.Context) error {
	session := ctx.Param("session")
	var req triageRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	kind := detection.Kind(req.Kind)
	if !kind.Known() {
		return ctx.JSON(http.StatusBadRequest, errorBody("unknown detection kind"))
	}
	if req.Status == "" {
		return ctx.JSON(http.StatusBadRequest, errorBody("status must not be empty"))
	}

	if err := c.store.SetTriageStatus(session, kind, req.NaturalKey, req.Status); err != nil {
		var enhanced *errors.EnhancedError
		if errors.As(err, &enhanced) && enhanced.GetCategory() == string(errors.CategoryNotFound) {
			return ctx.JSON(http.StatusNotFound, errorBody("detection not found"))
		}
		return c.serverError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) listDevices(ctx echo.Context) error {
	if cached, ok := c.cache.Get(devicesCacheKey); ok {
		return ctx.JSON(http.StatusOK, cached)
	}

	devices, err := c.store.GetCanonicalDevices()
	if err != nil {
		return c.serverError(ctx, err)
	}
	c.cache.Set(devicesCacheKey, devices, devicesCacheTTL)
	return ctx.JSON(http.StatusOK, devices)
}

func (c *Controller) clearDevices(ctx echo.Context) error {
	if err := c.store.ClearCanonicalDevices(); err != nil {
		return c.serverError(ctx, err)
	}
	c.cache.Delete(devicesCacheKey)
	return ctx.NoContent(http.StatusNoContent)
}

// scannerInfo is the state of one scan scheduler.
type scannerInfo struct {
	Kind           string  `json:"kind"`
	Enabled        bool    `json:"enabled"`
	Interval       float64 `json:"interval"`
	SignalFloorDbm float64 `json:"signalFloorDbm"`
	Running        bool    `json:"running"`
	Session        string  `json:"session,omitempty"`
}

func (c *Controller) listScanners(ctx echo.Context) error {
	infos := make([]scannerInfo, 0, len(c.schedulers))
	for _, kind := range []string{"wifi", "bluetooth", "cell"} {
		s, ok := c.schedulers[kind]
		if !ok {
			continue
		}
		cfg := s.Settings()
		infos = append(infos, scannerInfo{
			Kind:           kind,
			Enabled:        cfg.Enabled,
			Interval:       cfg.Interval,
			SignalFloorDbm: cfg.SignalFloorDbm,
			Running:        s.IsRunning(),
			Session:        s.Session(),
		})
	}
	return ctx.JSON(http.StatusOK, infos)
}

type updateScannerRequest struct {
	Enabled        bool    `json:"enabled"`
	Interval       float64 `json:"interval"`
	SignalFloorDbm float64 `json:"signalFloorDbm"`
}

func (c *Controller) updateScanner(ctx echo.Context) error {
	kind := ctx.Param("kind")
	s, ok := c.schedulers[kind]
	if !ok {
		return ctx.JSON(http.StatusNotFound, errorBody("unknown scanner"))
	}

	var req updateScannerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}

	cfg := conf.ScannerSettings{
		Enabled:        req.Enabled,
		Interval:       req.Interval,
		SignalFloorDbm: req.SignalFloorDbm,
	}
	if err := s.UpdateSettings(cfg); err != nil {
		// Invalid settings are rejected synchronously; the previous
		// configuration stays in effect.
		return ctx.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) serverError(ctx echo.Context, err error) error {
	c.log.Error("request failed", "path", ctx.Path(), "error", err)
	return ctx.JSON(http.StatusInternalServerError, errorBody("internal error"))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func protectedSessionName() string {
	return conf.DefaultSession
}
