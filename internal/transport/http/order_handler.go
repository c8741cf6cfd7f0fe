package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
	"github.com/widegest/printflow/internal/service"
	"github.com/widegest/printflow/internal/util"
)

type OrderHandler struct {
	orders     ports.OrderRepository
	lines      *service.LineService
	dispatcher *service.DispatchService
	scheduler  *service.DispatchScheduler
}

func RegisterOrders(e *echo.Echo, orders ports.OrderRepository, lines *service.LineService, dispatcher *service.DispatchService, scheduler *service.DispatchScheduler) {
	handler := &OrderHandler{
		orders:     orders,
		lines:      lines,
		dispatcher: dispatcher,
		scheduler:  scheduler,
	}

	group := e.Group("/api/v1/orders")
	group.GET("", handler.list)
	group.GET("/:id", handler.get)
	group.POST("/:id/items/:itemID/dispatch", handler.dispatch)
	group.POST("/:id/items/:itemID/confirm", handler.confirm)
	group.POST("/:id/items/:itemID/reset", handler.reset)
	group.PUT("/:id/items/:itemID/machine", handler.setMachine)
	group.PUT("/:id/items/:itemID/flow", handler.setFlow)
}

func (h *OrderHandler) list(c echo.Context) error {
	limit, offset := parsePagination(c)

	orders, err := h.orders.List(c.Request().Context(), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list orders"))
	}
	total, err := h.orders.Count(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not count orders"))
	}
	return c.JSON(http.StatusOK, util.Page("orders", orders, total, limit, offset))
}

func (h *OrderHandler) get(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid order id"))
	}

	ctx := c.Request().Context()
	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusNotFound, util.Error("order not found"))
	}
	items, err := h.orders.ItemsByOrder(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not load order items"))
	}
	order.Items = items

	return c.JSON(http.StatusOK, util.Data("order", buildOrder(order)))
}

type dispatchRequest struct {
	Phase        int `json:"phase" validate:"required,oneof=1 2 3"`
	DelaySeconds int `json:"delay_seconds" validate:"gte=0"`
}

func (h *OrderHandler) dispatch(c echo.Context) error {
	item, httpErr := h.pathItem(c)
	if httpErr != nil {
		return httpErr
	}

	var req dispatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid JSON body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	phase := domain.Phase(req.Phase)

	if req.DelaySeconds > 0 {
		h.scheduler.Schedule(item.ID, phase, time.Duration(req.DelaySeconds)*time.Second)
		return c.JSON(http.StatusAccepted, util.Envelope{
			"scheduled":     true,
			"item_id":       item.ID,
			"phase":         req.Phase,
			"delay_seconds": req.DelaySeconds,
		})
	}

	result, err := h.dispatcher.Dispatch(c.Request().Context(), item.ID, phase)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("dispatch", result))
}

type confirmRequest struct {
	Phase int `json:"phase" validate:"required,oneof=1 2"`
}

func (h *OrderHandler) confirm(c echo.Context) error {
	item, httpErr := h.pathItem(c)
	if httpErr != nil {
		return httpErr
	}

	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid JSON body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var err error
	if domain.Phase(req.Phase) == domain.PhasePreprint {
		err = h.lines.ConfirmPreprint(ctx, item.ID)
	} else {
		err = h.lines.ConfirmPrint(ctx, item.ID)
	}
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

func (h *OrderHandler) reset(c echo.Context) error {
	item, httpErr := h.pathItem(c)
	if httpErr != nil {
		return httpErr
	}
	if err := h.lines.Reset(c.Request().Context(), item.ID); err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

type setMachineRequest struct {
	MachineID *uuid.UUID `json:"machine_id"`
}

func (h *OrderHandler) setMachine(c echo.Context) error {
	item, httpErr := h.pathItem(c)
	if httpErr != nil {
		return httpErr
	}

	var req setMachineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid JSON body"))
	}
	if err := h.orders.SetItemMachine(c.Request().Context(), item.ID, req.MachineID); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not update machine"))
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

type setFlowRequest struct {
	FlowID *uuid.UUID `json:"flow_id"`
}

func (h *OrderHandler) setFlow(c echo.Context) error {
	item, httpErr := h.pathItem(c)
	if httpErr != nil {
		return httpErr
	}

	var req setFlowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid JSON body"))
	}
	if err := h.orders.SetItemFlow(c.Request().Context(), item.ID, req.FlowID); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not update flow"))
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}

// pathItem resolves the :id/:itemID pair and enforces that the item belongs
// to the order in the path.
func (h *OrderHandler) pathItem(c echo.Context) (*domain.OrderItem, error) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, util.Error("invalid order id"))
	}
	itemID, err := strconv.ParseInt(c.Param("itemID"), 10, 64)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, util.Error("invalid item id"))
	}

	item, err := h.lines.Item(c.Request().Context(), itemID)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			return nil, c.JSON(http.StatusNotFound, util.Error("order item not found"))
		}
		return nil, c.JSON(http.StatusInternalServerError, util.Error("could not load order item"))
	}
	if item.OrderID != orderID {
		return nil, c.JSON(http.StatusNotFound, util.Error("order item not found"))
	}
	return item, nil
}

func dispatchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrAssetsNotReady),
		errors.Is(err, service.ErrNoFlow),
		errors.Is(err, service.ErrNoEndpoint),
		errors.Is(err, service.ErrNoMachine),
		errors.Is(err, service.ErrPreprintNotDone),
		errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	case errors.Is(err, service.ErrDispatchRejected):
		return c.JSON(http.StatusBadGateway, util.Error(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("operation failed"))
	}
}

func parsePagination(c echo.Context) (int, int) {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)
	limit := defaultLimit
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	offset := 0
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
