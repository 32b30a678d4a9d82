package config

import (
	"os"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Cloudinary   CloudinaryConfig
	Payment      PaymentConfig
	Gateway      GatewayConfig
	BankTransfer BankTransferConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type PaymentConfig struct {
	Currency   string
	DueHorizon time.Duration // default due_at when the caller omits one
}

// GatewayConfig for the remote card processor (payment intents).
type GatewayConfig struct {
	BaseURL        string
	SecretKey      string
	MinAmountCents int64
}

// BankTransferConfig holds the operator's static routing/account display
// fields shown on interbank instructions; they are not per-payment.
type BankTransferConfig struct {
	BankName      string
	BranchCode    string
	AccountName   string
	AccountNumber string
	SwiftCode     string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8090"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DB_DSN", "kodisha:kodisha@tcp(localhost:3306)/kodisha?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envOr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "kodisha",
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Payment: PaymentConfig{
			Currency:   "KES",
			DueHorizon: 30 * 24 * time.Hour,
		},
		Gateway: GatewayConfig{
			BaseURL:        envOr("GATEWAY_BASE_URL", "https://card-api.theliberec.com"),
			SecretKey:      os.Getenv("GATEWAY_SECRET_KEY"),
			MinAmountCents: 100, // processor rejects sub-unit charges
		},
		BankTransfer: BankTransferConfig{
			BankName:      envOr("BANK_NAME", "Equity Bank"),
			BranchCode:    envOr("BANK_BRANCH_CODE", "068"),
			AccountName:   envOr("BANK_ACCOUNT_NAME", "Kodisha Properties Ltd"),
			AccountNumber: envOr("BANK_ACCOUNT_NUMBER", "0680163512447"),
			SwiftCode:     envOr("BANK_SWIFT_CODE", "EQBLKENA"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
