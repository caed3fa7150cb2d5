package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the portal and its local stub backend.
type Config struct {
	Port        string
	Origin      string
	Environment string
	LogLevel    string
	APIBaseURL  string
	Location    *time.Location
	Cookie      CookieConfig
	CSRFKey     []byte
	MockAPI     MockAPIConfig
}

// CookieConfig holds the keys protecting the client-side session cookies.
// Empty keys mean "generate at startup"; sessions then do not survive a restart.
type CookieConfig struct {
	HashKey  []byte
	BlockKey []byte
	Secure   bool
}

// MockAPIConfig configures the in-process stand-in for the clinic REST backend.
type MockAPIConfig struct {
	Port             string
	DBDriver         string
	DSN              string
	JWTSecret        string
	OTPExpiryMinutes int
	LoginRatePerMin  int
	Mailer           MailerConfig
}

// MailerConfig holds OTP email delivery configuration for the stub backend.
type MailerConfig struct {
	Transport    string
	DefaultFrom  string
	ResendAPIKey string
}

// IsDevelopment reports whether the portal runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	baseURL := strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/")
	if u, err := url.Parse(baseURL); err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("invalid API_BASE_URL %q", baseURL)
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	hashKey, err := hexKey("COOKIE_HASH_KEY", 32, 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := hexKey("COOKIE_BLOCK_KEY", 16, 24, 32)
	if err != nil {
		return nil, err
	}
	csrfKey, err := hexKey("CSRF_KEY", 32)
	if err != nil {
		return nil, err
	}

	otpExpiry, err := strconv.Atoi(getEnv("OTP_EXPIRY_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid OTP_EXPIRY_MINUTES: %w", err)
	}
	loginRate, err := strconv.Atoi(getEnv("MOCKAPI_LOGIN_RATE_PER_MINUTE", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCKAPI_LOGIN_RATE_PER_MINUTE: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	return &Config{
		Port:        getEnv("PORT", "3000"),
		Origin:      getEnv("ORIGIN", "http://localhost:3000"),
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		APIBaseURL:  baseURL,
		Location:    loc,
		Cookie: CookieConfig{
			HashKey:  hashKey,
			BlockKey: blockKey,
			Secure:   env != "development",
		},
		CSRFKey: csrfKey,
		MockAPI: MockAPIConfig{
			Port:             getEnv("MOCKAPI_PORT", "8000"),
			DBDriver:         getEnv("MOCKAPI_DB_DRIVER", "sqlite"),
			DSN:              getEnv("MOCKAPI_DSN", ""),
			JWTSecret:        getEnv("JWT_SECRET", "default_jwt_secret"),
			OTPExpiryMinutes: otpExpiry,
			LoginRatePerMin:  loginRate,
			Mailer: MailerConfig{
				Transport:    getEnv("MAILER_TRANSPORT", "log"),
				DefaultFrom:  getEnv("MAILER_DEFAULT_FROM", "Iris Therapy <no-reply@iris.local>"),
				ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			},
		},
	}, nil
}

// hexKey decodes a hex-encoded key and checks its byte length.
func hexKey(name string, sizes ...int) ([]byte, error) {
	raw := getEnv(name, "")
	if raw == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	for _, n := range sizes {
		if len(key) == n {
			return key, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %d bytes, want one of %v", name, len(key), sizes)
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
