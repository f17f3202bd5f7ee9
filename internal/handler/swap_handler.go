package handler

import (
	"net/http"
	"ticketchain/internal/middleware"
	"ticketchain/internal/model"
	"ticketchain/internal/monitoring"
	"ticketchain/internal/service"

	"github.com/gin-gonic/gin"
)

type SwapHandler struct {
	service service.SwapService
}

func NewSwapHandler(service service.SwapService) *SwapHandler {
	return &SwapHandler{service: service}
}

func (h *SwapHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("swaps/offers")
	{
		router.GET("", h.GetOffers)
		router.GET(":id", h.GetOffer)
		router.POST("", h.CreateOffer)
		router.POST(":id/accept", h.AcceptOffer)
		router.DELETE(":id", h.CancelOffer)
	}
	r.POST("swaps/withdraw-fees", h.WithdrawFees)
}

func (h *SwapHandler) GetOffers(c *gin.Context) {
	offers, err := h.service.ListOffers(c)
	if err != nil {
		handleError(c, err, "GetOffers")
		return
	}
	handleSuccess(c, offers, http.StatusOK)
}

func (h *SwapHandler) GetOffer(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	offer, err := h.service.GetOffer(c, id)
	if err != nil {
		handleError(c, err, "GetOffer")
		return
	}
	handleSuccess(c, offer, http.StatusOK)
}

func (h *SwapHandler) CreateOffer(c *gin.Context) {
	var req model.CreateOfferRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	offer, err := h.service.CreateOffer(c, middleware.CallerAddress(c), req)
	if err != nil {
		handleError(c, err, "CreateOffer")
		return
	}
	handleSuccess(c, offer, http.StatusCreated)
}

func (h *SwapHandler) AcceptOffer(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	var req model.AcceptOfferRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.AcceptOffer(c, middleware.CallerAddress(c), id, req.Fee); err != nil {
		handleError(c, err, "AcceptOffer")
		return
	}

	monitoring.SwapsTotal.Inc()
	handleSuccess(c, nil, http.StatusOK)
}

func (h *SwapHandler) CancelOffer(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	if err := h.service.CancelOffer(c, middleware.CallerAddress(c), id); err != nil {
		handleError(c, err, "CancelOffer")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

func (h *SwapHandler) WithdrawFees(c *gin.Context) {
	amount, err := h.service.WithdrawFees(c, middleware.CallerAddress(c))
	if err != nil {
		handleError(c, err, "WithdrawFees")
		return
	}
	handleSuccess(c, gin.H{"amount": amount.String()}, http.StatusOK)
}
