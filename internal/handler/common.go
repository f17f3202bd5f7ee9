package handler

import (
	"errors"
	"net/http"
	"strconv"
	apperrors "ticketchain/pkg/app_errors"
	"ticketchain/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid request format")
		return err
	}
	return nil
}

func PathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid id")
		return 0, err
	}
	return id, nil
}

func respondError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"kind":    kind,
			"message": message,
		},
	})
}

type errorClass struct {
	status int
	kind   string
}

// One row per sentinel keeps the HTTP mapping in a single place; every
// handler funnels service errors through handleError.
var errorClasses = map[error]errorClass{
	apperrors.ErrNotOwner:             {http.StatusForbidden, "authorization"},
	apperrors.ErrNotOracle:            {http.StatusForbidden, "authorization"},
	apperrors.ErrNotPlatformOwner:     {http.StatusForbidden, "authorization"},
	apperrors.ErrNotSeller:            {http.StatusForbidden, "authorization"},
	apperrors.ErrNotAuthorizedSpender: {http.StatusForbidden, "authorization"},
	apperrors.ErrUnauthorizedSwap:     {http.StatusForbidden, "authorization"},
	apperrors.ErrNotApproved:          {http.StatusForbidden, "authorization"},
	apperrors.ErrWrongOwner:           {http.StatusForbidden, "authorization"},
	apperrors.ErrNotDesiredOwner:      {http.StatusForbidden, "authorization"},
	apperrors.ErrSelfAccept:           {http.StatusForbidden, "authorization"},
	apperrors.ErrSelfPurchase:         {http.StatusForbidden, "authorization"},
	apperrors.ErrMakerNoLongerOwns:    {http.StatusConflict, "conflict"},

	apperrors.ErrInvalidQuantity:   {http.StatusBadRequest, "validation"},
	apperrors.ErrInvalidPrice:      {http.StatusBadRequest, "validation"},
	apperrors.ErrInvalidAmount:     {http.StatusBadRequest, "validation"},
	apperrors.ErrMinimumDaysNotMet: {http.StatusBadRequest, "validation"},
	apperrors.ErrBuyViaSubEvent:    {http.StatusBadRequest, "validation"},
	apperrors.ErrInvalidInput:      {http.StatusBadRequest, "validation"},

	apperrors.ErrEventNotFound:    {http.StatusNotFound, "conflict"},
	apperrors.ErrSubEventNotFound: {http.StatusNotFound, "conflict"},
	apperrors.ErrTicketNotFound:   {http.StatusNotFound, "conflict"},
	apperrors.ErrOfferNotFound:    {http.StatusNotFound, "conflict"},
	apperrors.ErrListingNotActive: {http.StatusConflict, "conflict"},
	apperrors.ErrOfferNotActive:   {http.StatusConflict, "conflict"},
	apperrors.ErrEventNotActive:   {http.StatusConflict, "conflict"},
	apperrors.ErrEventEnded:       {http.StatusConflict, "conflict"},
	apperrors.ErrTicketUsed:       {http.StatusConflict, "conflict"},
	apperrors.ErrTicketInEscrow:   {http.StatusConflict, "conflict"},
	apperrors.ErrSwapNotAllowed:   {http.StatusConflict, "conflict"},
	apperrors.ErrAlreadyQueued:    {http.StatusConflict, "conflict"},
	apperrors.ErrNotQueued:        {http.StatusConflict, "conflict"},
	apperrors.ErrNotAdmitted:      {http.StatusConflict, "conflict"},

	apperrors.ErrIncorrectPayment:      {http.StatusPaymentRequired, "economic"},
	apperrors.ErrIncorrectPrice:        {http.StatusPaymentRequired, "economic"},
	apperrors.ErrIncorrectFee:          {http.StatusPaymentRequired, "economic"},
	apperrors.ErrInsufficientSupply:    {http.StatusConflict, "economic"},
	apperrors.ErrPriceExceedsCap:       {http.StatusConflict, "economic"},
	apperrors.ErrInsufficientAllowance: {http.StatusConflict, "economic"},
	apperrors.ErrInsufficientBalance:   {http.StatusConflict, "economic"},
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	for sentinel, class := range errorClasses {
		if errors.Is(err, sentinel) {
			log.Warn("request rejected")
			respondError(c, class.status, class.kind, sentinel.Error())
			return
		}
	}

	log.Error("unexpected error")
	respondError(c, http.StatusInternalServerError, "internal", "internal server error")
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
