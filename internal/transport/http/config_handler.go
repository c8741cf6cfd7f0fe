package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/widegest/printflow/internal/repository/ports"
	"github.com/widegest/printflow/internal/util"
)

// ConfigHandler exposes the read surface over dispatch configuration.
// Mutation belongs to the management UI, not this service.
type ConfigHandler struct {
	stores    ports.StoreRepository
	products  ports.ProductRepository
	machines  ports.MachineRepository
	flows     ports.FlowRepository
	endpoints ports.EndpointRepository
}

func RegisterConfig(e *echo.Echo, stores ports.StoreRepository, products ports.ProductRepository, machines ports.MachineRepository, flows ports.FlowRepository, endpoints ports.EndpointRepository) {
	handler := &ConfigHandler{
		stores:    stores,
		products:  products,
		machines:  machines,
		flows:     flows,
		endpoints: endpoints,
	}

	group := e.Group("/api/v1")
	group.GET("/stores", handler.listStores)
	group.GET("/products", handler.listProducts)
	group.GET("/machines", handler.listMachines)
	group.GET("/flows", handler.listFlows)
	group.GET("/endpoints", handler.listEndpoints)
}

func (h *ConfigHandler) listStores(c echo.Context) error {
	stores, err := h.stores.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list stores"))
	}
	return c.JSON(http.StatusOK, util.Data("stores", stores))
}

func (h *ConfigHandler) listProducts(c echo.Context) error {
	products, err := h.products.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list products"))
	}
	return c.JSON(http.StatusOK, util.Data("products", products))
}

func (h *ConfigHandler) listMachines(c echo.Context) error {
	machines, err := h.machines.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list machines"))
	}
	return c.JSON(http.StatusOK, util.Data("machines", machines))
}

func (h *ConfigHandler) listFlows(c echo.Context) error {
	flows, err := h.flows.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list flows"))
	}
	return c.JSON(http.StatusOK, util.Data("flows", flows))
}

func (h *ConfigHandler) listEndpoints(c echo.Context) error {
	endpoints, err := h.endpoints.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list endpoints"))
	}
	return c.JSON(http.StatusOK, util.Data("endpoints", endpoints))
}
