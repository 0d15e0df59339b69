package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Bot        BotConfig
	Payment    PaymentConfig
	Admin      AdminConfig
	Storage    StorageConfig
	Cloudinary CloudinaryConfig
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
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// BotConfig holds the chat-facing options. AppID and AppSecret are the MTProto
// credentials; the Bot API transport only needs Token.
type BotConfig struct {
	AppID              string
	AppSecret          string
	Token              string
	Name               string
	WelcomeMessage     string
	AutoDeleteSeconds  int
	AutoApprove        bool
	Password           string
	AdminContactURL    string
	SearchFallbackLink string
	SettingsCacheTTL   time.Duration
	RateLimitPerMinute int // per chat user; 0 disables
}

type PaymentConfig struct {
	UPI             string
	Crypto          string
	PayPal          string
	CODEnabled      bool
	GiftCardEnabled bool
}

type AdminConfig struct {
	Username     string
	Password     string
	PasswordHash string // bcrypt; wins over Password when set
	Email        string
}

type StorageConfig struct {
	UploadDir string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Enabled reports whether proof mirroring to Cloudinary is configured.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, relying on environment")
	}
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "5000"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "coursebot:coursebot@tcp(localhost:3306)/course_delivery_bot?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: getEnvDuration("JWT_ACCESS_EXPIRY", 12*time.Hour),
			Issuer:       "coursebot",
		},
		Bot: BotConfig{
			AppID:              getEnv("API_ID", ""),
			AppSecret:          getEnv("API_HASH", ""),
			Token:              getEnv("BOT_TOKEN", ""),
			Name:               getEnv("BOT_NAME", "Course Delivery Bot"),
			WelcomeMessage:     getEnv("WELCOME_MESSAGE", "Welcome to the Course Delivery Bot! Browse our courses and purchase them securely."),
			AutoDeleteSeconds:  getEnvInt("AUTO_DELETE_SECONDS", 300),
			AutoApprove:        getEnvBool("AUTO_APPROVE", false),
			Password:           getEnv("BOT_PASSWORD", ""),
			AdminContactURL:    getEnv("ADMIN_CONTACT_URL", ""),
			SearchFallbackLink: getEnv("SEARCH_FALLBACK_LINK", "@Available_course_list"),
			SettingsCacheTTL:   getEnvDuration("SETTINGS_CACHE_TTL", 30*time.Second),
			RateLimitPerMinute: getEnvInt("BOT_RATE_LIMIT", 30),
		},
		Payment: PaymentConfig{
			UPI:             getEnv("UPI_ID", ""),
			Crypto:          getEnv("CRYPTO_ADDRESS", ""),
			PayPal:          getEnv("PAYPAL_ID", ""),
			CODEnabled:      getEnvBool("COD_ENABLED", false),
			GiftCardEnabled: getEnvBool("GIFT_CARD_ENABLED", false),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			Password:     getEnv("ADMIN_PASSWORD", "admin123"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			Email:        getEnv("ADMIN_EMAIL", "admin@example.com"),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_FOLDER", "uploads"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: invalid int for %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return ParseBool(v)
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration for %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

// ParseBool accepts the loose spellings admins type into the settings form.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "y":
		return true
	}
	return false
}
