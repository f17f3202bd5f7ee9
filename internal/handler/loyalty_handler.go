package handler

import (
	"net/http"
	"ticketchain/internal/middleware"
	"ticketchain/internal/model"
	"ticketchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type LoyaltyHandler struct {
	service service.LoyaltyService
}

func NewLoyaltyHandler(service service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{service: service}
}

func (h *LoyaltyHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("loyalty")
	{
		router.GET("balance", h.Balance)
		router.GET("balance/:address", h.BalanceOf)
		router.GET("preview", h.PreviewRedemption)
		router.POST("approve", h.Approve)
		router.POST("award", h.AwardPoints)
		router.POST("redeem-ticket", h.RedeemTicket)
		router.POST("redeem-queue", h.RedeemQueue)
		router.PUT("rate", h.SetRate)
		router.PUT("spenders", h.SetSpender)
	}
}

func (h *LoyaltyHandler) Balance(c *gin.Context) {
	account, err := h.service.BalanceOf(c, middleware.CallerAddress(c))
	if err != nil {
		handleError(c, err, "Balance")
		return
	}
	handleSuccess(c, account, http.StatusOK)
}

func (h *LoyaltyHandler) BalanceOf(c *gin.Context) {
	account, err := h.service.BalanceOf(c, c.Param("address"))
	if err != nil {
		handleError(c, err, "BalanceOf")
		return
	}
	handleSuccess(c, account, http.StatusOK)
}

type previewQuery struct {
	TicketWei decimal.Decimal `form:"ticket_wei" binding:"required"`
}

func (h *LoyaltyHandler) PreviewRedemption(c *gin.Context) {
	var query previewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid request format")
		return
	}

	preview, err := h.service.PreviewRedemption(c, middleware.CallerAddress(c), query.TicketWei)
	if err != nil {
		handleError(c, err, "PreviewRedemption")
		return
	}
	handleSuccess(c, preview, http.StatusOK)
}

func (h *LoyaltyHandler) Approve(c *gin.Context) {
	var req model.ApprovePointsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.Approve(c, middleware.CallerAddress(c), req.Points); err != nil {
		handleError(c, err, "Approve")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

func (h *LoyaltyHandler) AwardPoints(c *gin.Context) {
	var req model.AwardPointsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	points, err := h.service.AwardPoints(c, middleware.CallerAddress(c), req.User, req.WeiSpent)
	if err != nil {
		handleError(c, err, "AwardPoints")
		return
	}
	handleSuccess(c, gin.H{"points": points.String()}, http.StatusOK)
}

func (h *LoyaltyHandler) RedeemTicket(c *gin.Context) {
	var req model.RedeemTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	preview, err := h.service.RedeemPointsTicket(c, middleware.CallerAddress(c), req.User, req.TicketWei)
	if err != nil {
		handleError(c, err, "RedeemTicket")
		return
	}
	handleSuccess(c, preview, http.StatusOK)
}

func (h *LoyaltyHandler) RedeemQueue(c *gin.Context) {
	var req model.RedeemQueueRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.RedeemPointsQueue(c, middleware.CallerAddress(c), req.User, req.Points); err != nil {
		handleError(c, err, "RedeemQueue")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

func (h *LoyaltyHandler) SetRate(c *gin.Context) {
	var req model.SetRateRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.SetRate(c, middleware.CallerAddress(c), req.PointsPerEther); err != nil {
		handleError(c, err, "SetRate")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

func (h *LoyaltyHandler) SetSpender(c *gin.Context) {
	var req model.SetSpenderRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.SetSpender(c, middleware.CallerAddress(c), req.Spender, req.Enabled); err != nil {
		handleError(c, err, "SetSpender")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}
