package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/widegest/printflow/internal/repository/ports"
	"github.com/widegest/printflow/internal/util"
)

type ImportErrorHandler struct {
	importErrors ports.ImportErrorRepository
}

func RegisterImportErrors(e *echo.Echo, repo ports.ImportErrorRepository) {
	handler := &ImportErrorHandler{importErrors: repo}
	e.GET("/api/v1/import-errors", handler.list)
}

func (h *ImportErrorHandler) list(c echo.Context) error {
	limit, offset := parsePagination(c)

	ctx := c.Request().Context()
	items, err := h.importErrors.List(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list import errors"))
	}
	total, err := h.importErrors.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not count import errors"))
	}
	return c.JSON(http.StatusOK, util.Page("import_errors", items, total, limit, offset))
}
