package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Mail     MailConfig
	Telegram TelegramConfig
	Payment  PaymentConfig
	Checkout CheckoutConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type MailConfig struct {
	APIKey     string
	BaseURL    string
	From       string
	AdminEmail string
}

type TelegramConfig struct {
	Token  string
	ChatID string
}

type PaymentConfig struct {
	NOWPayments NOWPaymentsConfig
}

type NOWPaymentsConfig struct {
	APIKey      string
	IPNSecret   string
	IPNCallback string
}

type CheckoutConfig struct {
	GuardTTL time.Duration
}

// AdminConfig seeds the first admin account on bootstrap.
type AdminConfig struct {
	Email    string
	Password string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_EXPIRY", "24h")
	viper.SetDefault("MAIL_FROM", "no-reply@streamvault.local")
	viper.SetDefault("CHECKOUT_GUARD_TTL", "30s")

	expiry, err := time.ParseDuration(viper.GetString("JWT_EXPIRY"))
	if err != nil {
		expiry = 24 * time.Hour
	}
	guardTTL, err := time.ParseDuration(viper.GetString("CHECKOUT_GUARD_TTL"))
	if err != nil {
		guardTTL = 30 * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Expiry: expiry,
		},
		Mail: MailConfig{
			APIKey:     viper.GetString("MAIL_API_KEY"),
			BaseURL:    viper.GetString("MAIL_BASE_URL"),
			From:       viper.GetString("MAIL_FROM"),
			AdminEmail: viper.GetString("MAIL_ADMIN_EMAIL"),
		},
		Telegram: TelegramConfig{
			Token:  viper.GetString("TELEGRAM_BOT_TOKEN"),
			ChatID: viper.GetString("TELEGRAM_CHAT_ID"),
		},
		Payment: PaymentConfig{
			NOWPayments: NOWPaymentsConfig{
				APIKey:      viper.GetString("NOWPAYMENTS_API_KEY"),
				IPNSecret:   viper.GetString("NOWPAYMENTS_IPN_SECRET"),
				IPNCallback: viper.GetString("NOWPAYMENTS_IPN_CALLBACK"),
			},
		},
		Checkout: CheckoutConfig{
			GuardTTL: guardTTL,
		},
		Admin: AdminConfig{
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set")
	}

	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
