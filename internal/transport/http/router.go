package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/widegest/printflow/internal/util"
)

// Pinger reports reachability of one backing dependency.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func NewRouter(allowOrigins []string, db, storage Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = newRequestValidator()

	registerLogging(e)

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, util.Envelope{
					"ok":       false,
					"database": err.Error(),
				})
			}
		}
		if storage != nil {
			if err := storage.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, util.Envelope{
					"ok":      false,
					"storage": err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, util.Envelope{"ok": true})
	})
	return e
}
