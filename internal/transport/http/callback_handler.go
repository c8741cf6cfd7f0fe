package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/widegest/printflow/internal/service"
	"github.com/widegest/printflow/internal/util"
)

// CallbackHandler exposes the two inbound completion contracts. They stay
// separate routes: the finishing system's integration paths are fixed
// independently and must not be unified behind content sniffing.
type CallbackHandler struct {
	service *service.CallbackService
}

func RegisterCallbacks(e *echo.Echo, svc *service.CallbackService) {
	handler := &CallbackHandler{service: svc}

	group := e.Group("/api/v1/callbacks")
	group.POST("/switch", handler.switchCallback)
	group.POST("/widegest", handler.widegestCallback)
}

func (h *CallbackHandler) switchCallback(c echo.Context) error {
	var cb service.SwitchCallback
	if err := c.Bind(&cb); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid JSON body"))
	}
	if cb.JobID == "" {
		return c.JSON(http.StatusBadRequest, util.Error("job_id is required"))
	}

	result, err := h.service.ApplySwitch(c.Request().Context(), cb)
	if err != nil {
		return callbackError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"success":    true,
		"order_id":   result.OrderID,
		"item_id":    result.ItemID,
		"phase":      result.Phase,
		"new_status": result.NewStatus,
	})
}

func (h *CallbackHandler) widegestCallback(c echo.Context) error {
	var cb service.WidegestCallback
	if err := c.Bind(&cb); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid JSON body"))
	}
	if cb.CodiceOrdine == "" || cb.IDRiga == 0 {
		return c.JSON(http.StatusBadRequest, util.Error("codice_ordine and id_riga are required"))
	}

	result, err := h.service.ApplyWidegest(c.Request().Context(), cb)
	if err != nil {
		return callbackError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"success":    true,
		"order_id":   result.OrderID,
		"item_id":    result.ItemID,
		"phase":      result.Phase,
		"new_status": result.NewStatus,
	})
}

func callbackError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrMalformedJobID):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("callback processing failed"))
	}
}
