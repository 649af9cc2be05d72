package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	aws_pkg "tokensale-service/aws"
	"tokensale-service/controllers"
	"tokensale-service/database"
	"tokensale-service/kafka"
	"tokensale-service/middleware"
	"tokensale-service/models"
	"tokensale-service/providers"
	"tokensale-service/repository"
	"tokensale-service/routes"
	"tokensale-service/sender"
	servicepkg "tokensale-service/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.ConnectPostgres(logger, cfg.DSN(),
		&models.Order{},
		&models.Payment{},
		&models.Wallet{},
		&models.WalletLog{},
		&models.WalletRefLog{},
		&models.Currency{},
		&models.Stats{},
		&models.Referral{},
	)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	// Redis is optional; without it currency reads skip the cache.
	redisClient, redisErr := database.NewRedisClient(cfg.RedisURL)
	if redisErr != nil {
		logger.Warn("Redis unavailable, currency cache disabled", zap.Error(redisErr))
		redisClient = nil
	}

	// AWS clients
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(context.Background())
	var snsClient aws_pkg.SNSPublisher
	if awsErr != nil {
		logger.Warn("AWS config unavailable, SNS disabled", zap.Error(awsErr))
	} else {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
	}

	metricsClient, metricsErr := aws_pkg.NewMetricsClient(context.Background())
	if metricsErr != nil {
		logger.Warn("CloudWatch metrics unavailable", zap.Error(metricsErr))
	}

	var producer servicepkg.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaPaymentEventsTopic)
		if err != nil {
			logger.Warn("Kafka unavailable, event publishing disabled", zap.Error(err))
		} else {
			defer p.Close() //nolint:errcheck
			producer = p
		}
	}

	var mailer sender.EmailSender
	smtpSender, smtpErr := sender.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if smtpErr != nil {
		logger.Warn("SMTP not configured, bank order emails disabled", zap.Error(smtpErr))
	} else {
		mailer = smtpSender
	}

	// Providers and DI chain
	cardProvider := providers.NewStripeProvider(cfg.StripeSecretKey)
	cryptoProvider := providers.NewCoinPaymentsProvider(
		cfg.CoinPaymentsPublicKey,
		cfg.CoinPaymentsPrivateKey,
		cfg.CoinPaymentsMerchantID,
		cfg.CoinPaymentsIPNSecret,
	)

	orderRepo := repository.NewGormOrderRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	walletRepo := repository.NewGormWalletRepository(db)
	salesRepo := repository.NewGormSalesRepository(db)

	walletService := servicepkg.NewWalletService(walletRepo, logger)
	purchaseService := servicepkg.NewPurchaseService(
		orderRepo,
		paymentRepo,
		walletService,
		walletRepo,
		cardProvider,
		cryptoProvider,
		mailer,
		cfg.BankDetails(),
		cfg.UIDomain,
		logger,
	)
	ipnService := servicepkg.NewIPNService(
		orderRepo,
		paymentRepo,
		producer,
		snsClient,
		cfg.PaymentSNSTopicARN,
		logger,
	)
	creditService := servicepkg.NewCreditService(
		paymentRepo,
		walletRepo,
		salesRepo,
		producer,
		cfg.MinConfirms,
		cfg.RefBonusPercent,
		logger,
	)
	salesService := servicepkg.NewSalesService(salesRepo, orderRepo, paymentRepo, redisClient, logger)

	purchaseController := controllers.NewPurchaseController(purchaseService)
	ipnController := controllers.NewIPNController(cryptoProvider, ipnService, logger)
	walletController := controllers.NewWalletController(walletService)
	salesController := controllers.NewSalesController(salesService)
	adminController := controllers.NewAdminController(purchaseService, creditService)

	// Background crediting sweep
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	creditService.Start(sweepCtx, cfg.CreditInterval)

	r := gin.New()

	// Global request-logging middleware
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
		)
	})

	// 30-second request timeout
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	r.Use(middleware.MetricsMiddleware(metricsClient, "tokensale-service"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "tokensale-service"})
	})

	routes.RegisterRoutes(r, purchaseController, ipnController, walletController, salesController, adminController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Token sale service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down token sale service...")

	sweepCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
