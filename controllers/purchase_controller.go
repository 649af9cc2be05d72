package controllers

import (
	"net/http"
	"strconv"

	"tokensale-service/middleware"
	"tokensale-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseController handles HTTP requests for token purchases.
type PurchaseController struct {
	purchaseService services.PurchaseService
}

// NewPurchaseController creates a new PurchaseController.
func NewPurchaseController(svc services.PurchaseService) *PurchaseController {
	return &PurchaseController{purchaseService: svc}
}

// CreateOrder handles POST /purchase
func (pc *PurchaseController) CreateOrder(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := pc.purchaseService.CreateOrder(ctx.Request.Context(), userID, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, resp)
}

// CreateBankOrder handles POST /purchase/bank
func (pc *PurchaseController) CreateBankOrder(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	email := middleware.GetUserEmail(ctx)
	if email == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User email is required"})
		return
	}

	if svcErr := pc.purchaseService.CreateBankOrder(ctx.Request.Context(), userID, email, &req); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Bank order created, instructions sent by email"})
}

// GetOrders handles GET /purchase/orders
func (pc *PurchaseController) GetOrders(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	orders, svcErr := pc.purchaseService.GetUserOrders(ctx.Request.Context(), userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderByID handles GET /purchase/orders/:id
func (pc *PurchaseController) GetOrderByID(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, svcErr := pc.purchaseService.GetOrderByID(ctx.Request.Context(), userID, orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// parsePaginationParams extracts and validates page/limit query params.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const maxLimit = 100
	pageInt, limitInt := 1, 10
	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("limit", "10")); err == nil && l > 0 {
		if l > maxLimit {
			l = maxLimit
		}
		limitInt = l
	}
	return pageInt, limitInt
}
