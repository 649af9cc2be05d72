package routes

import (
	"tokensale-service/controllers"
	"tokensale-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all sale-related routes.
func RegisterRoutes(
	r *gin.Engine,
	purchase *controllers.PurchaseController,
	ipn *controllers.IPNController,
	wallet *controllers.WalletController,
	sales *controllers.SalesController,
	admin *controllers.AdminController,
) {
	// Public: processor callback (HMAC-authenticated) and sale dashboard
	r.POST("/ipn", ipn.HandleIPN)

	salesGroup := r.Group("/sales")
	salesGroup.GET("/stats", sales.GetStats)
	salesGroup.GET("/currencies", sales.GetCurrencies)

	// Protected: purchase rails and order read side
	purchaseGroup := r.Group("/purchase")
	purchaseGroup.Use(middleware.AuthMiddleware())
	purchaseGroup.POST("", purchase.CreateOrder)
	purchaseGroup.POST("/bank", purchase.CreateBankOrder)
	purchaseGroup.GET("/orders", purchase.GetOrders)
	purchaseGroup.GET("/orders/:id", purchase.GetOrderByID)

	// Protected: wallet
	walletGroup := r.Group("/wallet")
	walletGroup.Use(middleware.AuthMiddleware())
	walletGroup.GET("", wallet.GetWallet)
	walletGroup.PUT("/address", wallet.UpdateAddress)
	walletGroup.GET("/referrals", wallet.GetReferrals)

	// Protected (admin): order list and manual crediting
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	adminGroup.GET("/orders", admin.ListOrders)
	adminGroup.POST("/credit/:payment_id", admin.CreditPayment)
}
