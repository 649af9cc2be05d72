package controllers

import (
	"net/http"

	"tokensale-service/middleware"
	"tokensale-service/services"

	"github.com/gin-gonic/gin"
)

// WalletController handles HTTP requests for wallet operations.
type WalletController struct {
	walletService services.WalletService
}

// NewWalletController creates a new WalletController.
func NewWalletController(svc services.WalletService) *WalletController {
	return &WalletController{walletService: svc}
}

type updateAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// GetWallet handles GET /wallet
func (wc *WalletController) GetWallet(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	wallet, svcErr := wc.walletService.Get(ctx.Request.Context(), userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// UpdateAddress handles PUT /wallet/address
func (wc *WalletController) UpdateAddress(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateAddressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	wallet, svcErr := wc.walletService.UpdateAddress(ctx.Request.Context(), userID, req.Address)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// GetReferrals handles GET /wallet/referrals
func (wc *WalletController) GetReferrals(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	logs, svcErr := wc.walletService.ReferralLogs(ctx.Request.Context(), userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"referrals": logs})
}
