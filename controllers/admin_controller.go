package controllers

import (
	"net/http"

	"tokensale-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminController handles back-office order and crediting operations.
type AdminController struct {
	purchaseService services.PurchaseService
	creditService   services.CreditService
}

// NewAdminController creates a new AdminController.
func NewAdminController(purchase services.PurchaseService, credit services.CreditService) *AdminController {
	return &AdminController{purchaseService: purchase, creditService: credit}
}

// ListOrders handles GET /admin/orders with an optional currency filter.
func (ac *AdminController) ListOrders(ctx *gin.Context) {
	if currency := ctx.Query("currency"); currency != "" {
		orders, svcErr := ac.purchaseService.GetOrdersByCurrency(ctx.Request.Context(), currency)
		if svcErr != nil {
			ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
		return
	}

	page, limit := parsePaginationParams(ctx)

	orders, total, svcErr := ac.purchaseService.GetAllOrders(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// CreditPayment handles POST /admin/credit/:payment_id
func (ac *AdminController) CreditPayment(ctx *gin.Context) {
	paymentID, err := uuid.Parse(ctx.Param("payment_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID"})
		return
	}

	if svcErr := ac.creditService.CreditPayment(ctx.Request.Context(), paymentID); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Payment credited"})
}
