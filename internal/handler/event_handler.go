package handler

import (
	"net/http"
	"ticketchain/internal/middleware"
	"ticketchain/internal/model"
	"ticketchain/internal/monitoring"
	"ticketchain/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("events")
	{
		router.GET("", h.GetEvents)
		router.GET(":id", h.GetEvent)
		router.GET(":id/sub-events", h.GetSubEvents)
		router.POST("", h.CreateEvent)
		router.POST("multi-day", h.CreateMultiDayEvent)
		router.POST(":id/buy", h.BuyTickets)
		router.POST(":id/buy-for", h.BuyTicketsFor)
		router.PUT(":id/close", h.CloseEvent)
	}

	subRouter := r.Group("sub-events")
	{
		subRouter.POST(":id/buy", h.BuySubEventTickets)
		subRouter.PUT(":id/swappable", h.SetSwappable)
	}

	swapRouter := r.Group("swaps")
	{
		swapRouter.GET("can-swap", h.CanSwap)
		swapRouter.POST("direct", h.SwapTickets)
	}
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		handleError(c, err, "GetEvents")
		return
	}
	handleSuccess(c, events, http.StatusOK)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	event, err := h.service.GetByID(c, id)
	if err != nil {
		handleError(c, err, "GetEvent")
		return
	}
	handleSuccess(c, event, http.StatusOK)
}

func (h *EventHandler) GetSubEvents(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	subEvents, err := h.service.ListSubEvents(c, id)
	if err != nil {
		handleError(c, err, "GetSubEvents")
		return
	}
	handleSuccess(c, subEvents, http.StatusOK)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req model.CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	event, err := h.service.CreateEvent(c, middleware.CallerAddress(c), req)
	if err != nil {
		handleError(c, err, "CreateEvent")
		return
	}
	handleSuccess(c, event, http.StatusCreated)
}

func (h *EventHandler) CreateMultiDayEvent(c *gin.Context) {
	var req model.CreateMultiDayEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	event, err := h.service.CreateMultiDayEvent(c, middleware.CallerAddress(c), req)
	if err != nil {
		handleError(c, err, "CreateMultiDayEvent")
		return
	}
	handleSuccess(c, event, http.StatusCreated)
}

func (h *EventHandler) BuyTickets(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	var req model.BuyTicketsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.BuyTickets(c, middleware.CallerAddress(c), id, req)
	if err != nil {
		handleError(c, err, "BuyTickets")
		return
	}

	monitoring.PurchasesTotal.WithLabelValues("primary").Inc()
	monitoring.TicketsSoldTotal.Add(float64(result.Quantity))
	handleSuccess(c, result, http.StatusCreated)
}

func (h *EventHandler) BuyTicketsFor(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	var req model.BuyTicketsForRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.BuyTicketsFor(c, middleware.CallerAddress(c), id, req)
	if err != nil {
		handleError(c, err, "BuyTicketsFor")
		return
	}

	monitoring.PurchasesTotal.WithLabelValues("primary").Inc()
	monitoring.TicketsSoldTotal.Add(float64(result.Quantity))
	handleSuccess(c, result, http.StatusCreated)
}

func (h *EventHandler) BuySubEventTickets(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	var req model.BuyTicketsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.BuySubEventTickets(c, middleware.CallerAddress(c), id, req)
	if err != nil {
		handleError(c, err, "BuySubEventTickets")
		return
	}

	monitoring.PurchasesTotal.WithLabelValues("primary").Inc()
	monitoring.TicketsSoldTotal.Add(float64(result.Quantity))
	handleSuccess(c, result, http.StatusCreated)
}

func (h *EventHandler) CloseEvent(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	if err := h.service.CloseEvent(c, middleware.CallerAddress(c), id); err != nil {
		handleError(c, err, "CloseEvent")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

type setSwappableRequest struct {
	Swappable *bool `json:"swappable" binding:"required"`
}

func (h *EventHandler) SetSwappable(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	var req setSwappableRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.SetSubEventSwappable(c, middleware.CallerAddress(c), id, *req.Swappable); err != nil {
		handleError(c, err, "SetSwappable")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

type canSwapQuery struct {
	Ticket1 int64 `form:"ticket_1" binding:"required"`
	Ticket2 int64 `form:"ticket_2" binding:"required"`
}

func (h *EventHandler) CanSwap(c *gin.Context) {
	var query canSwapQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid request format")
		return
	}

	ok, err := h.service.CanSwapTickets(c, query.Ticket1, query.Ticket2)
	if err != nil {
		handleError(c, err, "CanSwap")
		return
	}
	handleSuccess(c, gin.H{"can_swap": ok}, http.StatusOK)
}

func (h *EventHandler) SwapTickets(c *gin.Context) {
	var req model.SwapTicketsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.SwapTickets(c, middleware.CallerAddress(c), req); err != nil {
		handleError(c, err, "SwapTickets")
		return
	}

	monitoring.SwapsTotal.Inc()
	handleSuccess(c, nil, http.StatusOK)
}
