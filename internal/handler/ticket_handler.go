package handler

import (
	"net/http"
	"ticketchain/internal/middleware"
	"ticketchain/internal/model"
	"ticketchain/internal/service"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service service.RegistryService
}

func NewTicketHandler(service service.RegistryService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.RouterGroup) {
	router := r.Group("tickets")
	{
		router.GET(":id", h.GetTicket)
		router.GET("mine", h.MyTickets)
		router.GET("approvals", h.IsApproved)
		router.POST("approvals", h.SetApproval)
		router.POST(":id/transfer", h.Transfer)
		router.PUT(":id/use", h.MarkUsed)
	}
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	ticket, err := h.service.GetTicket(c, id)
	if err != nil {
		handleError(c, err, "GetTicket")
		return
	}
	handleSuccess(c, ticket, http.StatusOK)
}

func (h *TicketHandler) MyTickets(c *gin.Context) {
	tickets, err := h.service.TicketsOf(c, middleware.CallerAddress(c))
	if err != nil {
		handleError(c, err, "MyTickets")
		return
	}
	handleSuccess(c, tickets, http.StatusOK)
}

type transferRequest struct {
	To string `json:"to" binding:"required"`
}

func (h *TicketHandler) Transfer(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	var req transferRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.Transfer(c, middleware.CallerAddress(c), id, req.To); err != nil {
		handleError(c, err, "Transfer")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

func (h *TicketHandler) SetApproval(c *gin.Context) {
	var req model.SetApprovalRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.SetApprovalForAll(c, middleware.CallerAddress(c), req.Operator, req.Approved); err != nil {
		handleError(c, err, "SetApproval")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}

type approvalQuery struct {
	Owner    string `form:"owner" binding:"required"`
	Operator string `form:"operator" binding:"required"`
}

func (h *TicketHandler) IsApproved(c *gin.Context) {
	var query approvalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid request format")
		return
	}

	approved, err := h.service.IsApprovedForAll(c, query.Owner, query.Operator)
	if err != nil {
		handleError(c, err, "IsApproved")
		return
	}
	handleSuccess(c, gin.H{"approved": approved}, http.StatusOK)
}

func (h *TicketHandler) MarkUsed(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		return
	}
	if err := h.service.MarkTicketUsed(c, middleware.CallerAddress(c), id); err != nil {
		handleError(c, err, "MarkUsed")
		return
	}
	handleSuccess(c, nil, http.StatusOK)
}
