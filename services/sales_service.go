package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tokensale-service/models"
	"tokensale-service/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	currencyCacheKey = "sale:currencies"
	currencyCacheTTL = 5 * time.Minute
)

// SalesService serves the public sale dashboard: running totals and the
// fetched currency prices.
type SalesService interface {
	Stats(ctx context.Context) (*models.SaleStats, *ServiceError)
	Currencies(ctx context.Context) ([]models.Currency, *ServiceError)
}

type salesServiceImpl struct {
	sales    repository.SalesRepository
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	redis    *redis.Client
	logger   *zap.Logger
}

// NewSalesService creates a new SalesService. The redis client is optional;
// without it currency reads go straight to the database.
func NewSalesService(
	sales repository.SalesRepository,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	redisClient *redis.Client,
	logger *zap.Logger,
) SalesService {
	return &salesServiceImpl{
		sales:    sales,
		orders:   orders,
		payments: payments,
		redis:    redisClient,
		logger:   logger,
	}
}

func (s *salesServiceImpl) Stats(ctx context.Context) (*models.SaleStats, *ServiceError) {
	stats, err := s.sales.GetProdStats(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stats = &models.Stats{}
		} else {
			s.logger.Error("Failed to fetch sale stats", zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch sale stats"}
		}
	}

	orders, err := s.orders.CountActive(ctx)
	if err != nil {
		s.logger.Error("Failed to count active orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch sale stats"}
	}

	credits, err := s.payments.CountCredited(ctx)
	if err != nil {
		s.logger.Error("Failed to count credited payments", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch sale stats"}
	}

	return &models.SaleStats{
		Fund:         stats.Fund,
		Sold:         stats.Sold,
		Contributors: stats.Contributors,
		Orders:       orders,
		Credits:      credits,
	}, nil
}

// Currencies returns the price list, read through a short-lived redis cache.
func (s *salesServiceImpl) Currencies(ctx context.Context) ([]models.Currency, *ServiceError) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, currencyCacheKey).Result()
		if err == nil {
			var currencies []models.Currency
			if err := json.Unmarshal([]byte(cached), &currencies); err == nil {
				return currencies, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("Currency cache read failed", zap.Error(err))
		}
	}

	currencies, err := s.sales.ListCurrencies(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch currencies", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch currencies"}
	}

	if s.redis != nil {
		if data, err := json.Marshal(currencies); err == nil {
			if err := s.redis.Set(ctx, currencyCacheKey, data, currencyCacheTTL).Err(); err != nil {
				s.logger.Warn("Currency cache write failed", zap.Error(err))
			}
		}
	}

	return currencies, nil
}
