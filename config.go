package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "tokensale-service/aws"
	"tokensale-service/services"
)

// Config holds all configuration for the token sale service.
type Config struct {
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	StripeSecretKey         string
	CoinPaymentsPublicKey   string
	CoinPaymentsPrivateKey  string
	CoinPaymentsMerchantID  string
	CoinPaymentsIPNSecret   string
	PaymentSNSTopicARN      string
	KafkaBrokers            []string
	KafkaPaymentEventsTopic string
	RedisURL                string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	UIDomain string
	// Wire-transfer beneficiary details
	BankName      string
	BankNumber    string
	BankSwiftCode string

	MinConfirms     int
	RefBonusPercent float64
	CreditInterval  time.Duration
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

// BankDetails builds the wire instructions from config values.
func (c *Config) BankDetails() services.BankDetails {
	return services.BankDetails{
		Name:      c.BankName,
		Number:    c.BankNumber,
		SwiftCode: c.BankSwiftCode,
	}
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8095"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		CoinPaymentsPublicKey:   os.Getenv("COINPAYMENTS_PUBLIC_KEY"),
		CoinPaymentsPrivateKey:  os.Getenv("COINPAYMENTS_PRIVATE_KEY"),
		CoinPaymentsMerchantID:  os.Getenv("COINPAYMENTS_MERCHANT_ID"),
		CoinPaymentsIPNSecret:   os.Getenv("COINPAYMENTS_IPN_SECRET"),
		PaymentSNSTopicARN:      os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		KafkaPaymentEventsTopic: getEnv("KAFKA_PAYMENT_EVENTS_TOPIC", "payment-events"),
		RedisURL:                os.Getenv("REDIS_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		UIDomain:      getEnv("UI_DOMAIN", "tokensale.example.com"),
		BankName:      getEnv("BANK_NAME", "AEQUO ANIMO AG"),
		BankNumber:    getEnv("BANK_NUMBER", "CH7100779000243211103"),
		BankSwiftCode: getEnv("BANK_SWIFT_CODE", "NIKACH22XXX"),

		MinConfirms:     getEnvInt("MIN_CONFIRMS", 2),
		RefBonusPercent: getEnvFloat("REF_BONUS_PERCENT", 5),
		CreditInterval:  getEnvDuration("CREDIT_INTERVAL", time.Minute),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if dbjson, err := sm.GetSecret(context.Background(), "tokensale/DB_CREDENTIALS"); err == nil && dbjson != "" {
				var m map[string]string
				if err := json.Unmarshal([]byte(dbjson), &m); err == nil {
					if v, ok := m["POSTGRES_USER"]; ok && v != "" {
						cfg.PostgresUser = v
					}
					if v, ok := m["POSTGRES_PASSWORD"]; ok && v != "" {
						cfg.PostgresPassword = v
					}
					if v, ok := m["POSTGRES_DB"]; ok && v != "" {
						cfg.PostgresDB = v
					}
					if v, ok := m["POSTGRES_HOST"]; ok && v != "" {
						cfg.PostgresHost = v
					}
					if v, ok := m["POSTGRES_PORT"]; ok && v != "" {
						cfg.PostgresPort = v
					}
				}
			}
			if v, err := sm.GetSecret(context.Background(), "tokensale/STRIPE_SECRET_KEY"); err == nil && v != "" {
				cfg.StripeSecretKey = v
			}
			if v, err := sm.GetSecret(context.Background(), "tokensale/COINPAYMENTS_PRIVATE_KEY"); err == nil && v != "" {
				cfg.CoinPaymentsPrivateKey = v
			}
			if v, err := sm.GetSecret(context.Background(), "tokensale/COINPAYMENTS_IPN_SECRET"); err == nil && v != "" {
				cfg.CoinPaymentsIPNSecret = v
			}
		}
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
