package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"ticketchain/internal/middleware"
	"ticketchain/internal/model"
	"ticketchain/internal/service"
	apperrors "ticketchain/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubEventService struct {
	service.EventService
	buyResult *model.PurchaseResult
	buyErr    error
	buyer     string
	eventID   int64
}

func (s *stubEventService) BuyTickets(ctx context.Context, buyer string, eventID int64, req model.BuyTicketsRequest) (*model.PurchaseResult, error) {
	s.buyer = buyer
	s.eventID = eventID
	return s.buyResult, s.buyErr
}

func newEventRouter(events service.EventService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(testSecret))
	NewEventHandler(events).RegisterRoutes(api)
	return router
}

func authHeader(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doBuy(t *testing.T, router *gin.Engine, subject, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/7/buy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authHeader(t, subject))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBuyTickets_Success(t *testing.T) {
	events := &stubEventService{
		buyResult: &model.PurchaseResult{
			EventID:   7,
			Buyer:     "0xalice",
			Quantity:  2,
			TotalPaid: decimal.NewFromInt(200),
			TicketIDs: []int64{11, 12},
		},
	}
	router := newEventRouter(events)

	w := doBuy(t, router, "0xalice", `{"quantity": 2, "payment": "200"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0xalice", events.buyer, "buyer comes from the token subject")
	assert.Equal(t, int64(7), events.eventID)

	var result model.PurchaseResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []int64{11, 12}, result.TicketIDs)
}

func TestBuyTickets_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"incorrect payment", apperrors.ErrIncorrectPayment, http.StatusPaymentRequired, "economic"},
		{"event not found", apperrors.ErrEventNotFound, http.StatusNotFound, "conflict"},
		{"sold out", apperrors.ErrInsufficientSupply, http.StatusConflict, "economic"},
		{"closed", apperrors.ErrEventNotActive, http.StatusConflict, "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newEventRouter(&stubEventService{buyErr: tt.err})

			w := doBuy(t, router, "0xalice", `{"quantity": 1, "payment": "100"}`)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body struct {
				Error struct {
					Kind    string `json:"kind"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Error.Kind)
			assert.Equal(t, tt.err.Error(), body.Error.Message)
		})
	}
}

func TestBuyTickets_MalformedBody(t *testing.T) {
	router := newEventRouter(&stubEventService{})

	w := doBuy(t, router, "0xalice", `{"quantity": "two"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuyTickets_Unauthenticated(t *testing.T) {
	router := newEventRouter(&stubEventService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/7/buy", strings.NewReader(`{"quantity": 1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
