package controllers

import (
	"net/http"

	"tokensale-service/models"
	"tokensale-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IPNParser verifies and decodes an inbound payment notification request.
type IPNParser interface {
	ParseIPN(r *http.Request) (*models.IPNNotification, error)
}

// IPNController handles payment notifications from the crypto processor.
type IPNController struct {
	parser     IPNParser
	ipnService services.IPNService
	logger     *zap.Logger
}

// NewIPNController creates a new IPNController.
func NewIPNController(parser IPNParser, svc services.IPNService, logger *zap.Logger) *IPNController {
	return &IPNController{parser: parser, ipnService: svc, logger: logger}
}

// HandleIPN handles POST /ipn. The processor retries on any non-200, so a
// store failure returns 500 and every decided outcome returns 200.
func (ic *IPNController) HandleIPN(ctx *gin.Context) {
	n, err := ic.parser.ParseIPN(ctx.Request)
	if err != nil {
		ic.logger.Warn("Rejected IPN request", zap.Error(err))
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid notification"})
		return
	}

	result, err := ic.ipnService.Process(ctx.Request.Context(), n)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process notification"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"outcome": result.Outcome})
}
