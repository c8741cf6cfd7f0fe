package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/widegest/printflow/internal/service"
	"github.com/widegest/printflow/internal/util"
)

type AssetHandler struct {
	service *service.AssetService
}

func RegisterAssets(e *echo.Echo, svc *service.AssetService) {
	handler := &AssetHandler{service: svc}

	group := e.Group("/api/v1/assets")
	group.GET("/:id/file", handler.download)
	group.POST("/:id/fetch", handler.fetch)
}

// download streams the locally retrieved file. The finishing system calls
// this from the url field of dispatch payloads.
func (h *AssetHandler) download(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid asset id"))
	}

	rc, size, filename, err := h.service.Open(c.Request().Context(), assetID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssetNotFound), errors.Is(err, service.ErrAssetNotRetrieved):
			return c.JSON(http.StatusNotFound, util.Error("asset not available"))
		default:
			return c.JSON(http.StatusInternalServerError, util.Error("could not open asset"))
		}
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	if size > 0 {
		c.Response().Header().Set(echo.HeaderContentLength, fmt.Sprintf("%d", size))
	}
	return c.Stream(http.StatusOK, "application/octet-stream", rc)
}

// fetch retries retrieval for an asset whose original download failed.
func (h *AssetHandler) fetch(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid asset id"))
	}

	if err := h.service.Fetch(c.Request().Context(), assetID); err != nil {
		if errors.Is(err, service.ErrAssetNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("asset not found"))
		}
		return c.JSON(http.StatusBadGateway, util.Error(err.Error()))
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}
