// Package api exposes the project and event stores over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/matt-steen/sqr1/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// NewServer returns an echo instance with every route registered. /metrics serves gatherer.
func NewServer(database *db.Database, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger)

	Register(e, database)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return e
}

// Register wires up the API routes on e.
func Register(e *echo.Echo, database *db.Database) {
	h := &handlers{db: database}

	e.GET("/healthz", h.healthz)
	e.GET("/api/limits", h.limits)

	projects := e.Group("/api/projects")
	projects.GET("", h.listProjects)
	projects.POST("", h.createProject)
	projects.GET("/:id", h.getProject)
	projects.PUT("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)

	projects.POST("/:id/tabs", h.addTab)
	projects.PATCH("/:id/tabs/:tabID", h.updateTab)
	projects.DELETE("/:id/tabs/:tabID", h.deleteTab)

	projects.POST("/:id/tabs/:tabID/checklist", h.addChecklistItem)
	projects.PATCH("/:id/tabs/:tabID/checklist/:itemID", h.updateChecklistItem)
	projects.POST("/:id/tabs/:tabID/checklist/:itemID/toggle", h.toggleChecklistItem)
	projects.DELETE("/:id/tabs/:tabID/checklist/:itemID", h.removeChecklistItem)

	events := e.Group("/api/events")
	events.GET("", h.listEvents)
	events.POST("", h.createEvent)
	events.PATCH("/:id", h.updateEvent)
	events.DELETE("/:id", h.deleteEvent)
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case db.IsLimit(err):
		return http.StatusConflict
	case db.IsInvalid(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		return c.JSON(status, errorResponse{Error: "internal error"})
	}

	return c.JSON(status, errorResponse{Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		log.Debug().
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("http request")

		return err
	}
}
