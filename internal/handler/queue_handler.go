package handler

import (
	"net/http"
	"ticketchain/internal/middleware"
	"ticketchain/internal/model"
	"ticketchain/internal/monitoring"
	"ticketchain/internal/service"

	"github.com/gin-gonic/gin"
)

type QueueHandler struct {
	service service.QueueService
	oracle  string
}

func NewQueueHandler(service service.QueueService, oracleAddress string) *QueueHandler {
	return &QueueHandler{service: service, oracle: oracleAddress}
}

func (h *QueueHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("queue")
	{
		router.GET("position", h.Position)
		router.GET("stats", h.Stats)
		router.POST("join", h.Join)
		router.POST("leave", h.Leave)
		router.POST("complete", middleware.RequireAddress(h.oracle), h.Complete)
		router.POST("purchase/:eventId", h.SubmitPurchase)
	}
}

func (h *QueueHandler) Join(c *gin.Context) {
	var req model.JoinQueueRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	position, err := h.service.Join(c, middleware.CallerAddress(c), req.Points)
	if err != nil {
		handleError(c, err, "Join")
		return
	}

	h.recordDepth(c)
	handleSuccess(c, position, http.StatusCreated)
}

func (h *QueueHandler) Leave(c *gin.Context) {
	if err := h.service.Leave(c, middleware.CallerAddress(c)); err != nil {
		handleError(c, err, "Leave")
		return
	}

	h.recordDepth(c)
	handleSuccess(c, nil, http.StatusOK)
}

func (h *QueueHandler) Position(c *gin.Context) {
	position, err := h.service.Position(c, middleware.CallerAddress(c))
	if err != nil {
		handleError(c, err, "Position")
		return
	}
	handleSuccess(c, position, http.StatusOK)
}

type completeRequest struct {
	Address string `json:"address" binding:"required"`
}

func (h *QueueHandler) Complete(c *gin.Context) {
	var req completeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.Complete(c, middleware.CallerAddress(c), req.Address); err != nil {
		handleError(c, err, "Complete")
		return
	}

	h.recordDepth(c)
	handleSuccess(c, nil, http.StatusOK)
}

func (h *QueueHandler) Stats(c *gin.Context) {
	stats := h.service.Stats(c)
	handleSuccess(c, stats, http.StatusOK)
}

func (h *QueueHandler) SubmitPurchase(c *gin.Context) {
	eventID, err := PathID(c, "eventId")
	if err != nil {
		return
	}
	var req model.BuyTicketsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	order, err := h.service.SubmitPurchase(c, middleware.CallerAddress(c), eventID, req)
	if err != nil {
		handleError(c, err, "SubmitPurchase")
		return
	}
	handleSuccess(c, order, http.StatusAccepted)
}

func (h *QueueHandler) recordDepth(c *gin.Context) {
	stats := h.service.Stats(c)
	monitoring.QueueDepth.Set(float64(stats.Waiting + stats.Active))
}
