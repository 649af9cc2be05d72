package controllers

import (
	"net/http"

	"tokensale-service/services"

	"github.com/gin-gonic/gin"
)

// SalesController serves the public sale dashboard endpoints.
type SalesController struct {
	salesService services.SalesService
}

// NewSalesController creates a new SalesController.
func NewSalesController(svc services.SalesService) *SalesController {
	return &SalesController{salesService: svc}
}

// GetStats handles GET /sales/stats
func (sc *SalesController) GetStats(ctx *gin.Context) {
	stats, svcErr := sc.salesService.Stats(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// GetCurrencies handles GET /sales/currencies
func (sc *SalesController) GetCurrencies(ctx *gin.Context) {
	currencies, svcErr := sc.salesService.Currencies(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"currencies": currencies})
}
