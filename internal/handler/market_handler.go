package handler

import (
	"net/http"
	"ticketchain/internal/middleware"
	"ticketchain/internal/model"
	"ticketchain/internal/monitoring"
	"ticketchain/internal/service"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	service service.MarketService
}

func NewMarketHandler(service service.MarketService) *MarketHandler {
	return &MarketHandler{service: service}
}

func (h *MarketHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("market")
	{
		router.GET("listings", h.GetListings)
		router.POST("listings", h.ListTicket)
		router.DELETE("listings/:id", h.DelistTicket)
		router.POST("listings/:id/buy", h.BuyListing)
		router.PUT("resale-cap", h.SetResaleCap)
		router.PUT("royalty", h.SetRoyalty)
	}
}

func (h *MarketHandler) GetListings(c *gin.Context) {
	listings, err := h.service.GetListings(c)
	if err != nil {
		handleError(c, err, "GetListings")
		return
	}
	handleSuccess(c, listings, http.StatusOK)
}

func (h *MarketHandler) ListTicket(c *gin.Context) {
	var req model.ListTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	listing, err := h.service.ListTicket(c, middleware.CallerAddress(c), req)
	if err != nil {
		handleError(c, err, "ListTicket")
		return
	}

	monitoring.ListingsActive.Inc()
	handleSuccess(c, listing, http.StatusCreated)
}

func (h *MarketHandler) DelistTicket(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	if err := h.service.DelistTicket(c, middleware.CallerAddress(c), id); err != nil {
		handleError(c, err, "DelistTicket")
		return
	}

	monitoring.ListingsActive.Dec()
	handleSuccess(c, nil, http.StatusOK)
}

func (h *MarketHandler) BuyListing(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	var req model.BuyListingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.BuyListing(c, middleware.CallerAddress(c), id, req.Payment)
	if err != nil {
		handleError(c, err, "BuyListing")
		return
	}

	monitoring.PurchasesTotal.WithLabelValues("resale").Inc()
	monitoring.ListingsActive.Dec()
	handleSuccess(c, result, http.StatusOK)
}

type setBpsRequest struct {
	Bps *int64 `json:"bps" binding:"required"`
}

func (h *MarketHandler) SetResaleCap(c *gin.Context) {
	var req setBpsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	if err := h.service.SetResaleCapBps(c, middleware.CallerAddress(c), *req.Bps); err != nil {
		handleError(c, err, "SetResaleCap")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

func (h *MarketHandler) SetRoyalty(c *gin.Context) {
	var req setBpsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	if err := h.service.SetRoyaltyBps(c, middleware.CallerAddress(c), *req.Bps); err != nil {
		handleError(c, err, "SetRoyalty")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}
