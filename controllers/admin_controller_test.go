package controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokensale-service/controllers"
	"tokensale-service/middleware"
	"tokensale-service/models"
	"tokensale-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type mockCreditSvc struct {
	creditErr *services.ServiceError
	credited  []uuid.UUID
}

func (m *mockCreditSvc) CreditPayment(_ context.Context, paymentID uuid.UUID) *services.ServiceError {
	if m.creditErr != nil {
		return m.creditErr
	}
	m.credited = append(m.credited, paymentID)
	return nil
}
func (m *mockCreditSvc) Start(_ context.Context, _ time.Duration) {}

func setupAdminRouter(purchase services.PurchaseService, credit services.CreditService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c := controllers.NewAdminController(purchase, credit)

	g := r.Group("/admin")
	g.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	g.GET("/orders", c.ListOrders)
	g.POST("/credit/:payment_id", c.CreditPayment)
	return r
}

func adminRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	req.Header.Set("X-User-Role", "admin")
	return req
}

func TestListOrders_Success(t *testing.T) {
	purchase := &mockPurchaseSvc{
		allOrders: []models.Order{{ID: uuid.New(), Currency: "BTC"}},
		allTotal:  1,
	}
	r := setupAdminRouter(purchase, &mockCreditSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodGet, "/admin/orders?page=2&limit=20"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), `"page":2`)
}

func TestListOrders_NonAdminForbidden(t *testing.T) {
	r := setupAdminRouter(&mockPurchaseSvc{}, &mockCreditSvc{})

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	req.Header.Set("X-User-Role", "customer")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreditPayment_Success(t *testing.T) {
	credit := &mockCreditSvc{}
	r := setupAdminRouter(&mockPurchaseSvc{}, credit)

	paymentID := uuid.New()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credit/"+paymentID.String()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{paymentID}, credit.credited)
}

func TestCreditPayment_InvalidID(t *testing.T) {
	r := setupAdminRouter(&mockPurchaseSvc{}, &mockCreditSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credit/not-a-uuid"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreditPayment_Conflict(t *testing.T) {
	credit := &mockCreditSvc{creditErr: &services.ServiceError{StatusCode: 409, Message: "Payment already credited"}}
	r := setupAdminRouter(&mockPurchaseSvc{}, credit)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credit/"+uuid.NewString()))

	assert.Equal(t, http.StatusConflict, w.Code)
}
