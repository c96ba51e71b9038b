package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL string
	ServerAddr  string
	SessionTTL  time.Duration

	ProviderBaseURL         string
	ProviderSubscriptionKey string
	ProviderAggrChannel     string
	ProviderTimeout         time.Duration

	SMSURL      string
	SMSUser     string
	SMSPassword string
	SMSSender   string
	SMSPriority string
	SMSSType    string

	// Edit states are where a declined confirmation rewinds to.
	IssuanceEditState    string
	ReplacementEditState string
}

// Load reads configuration from the environment, seeding it from a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "fastag_hub")
		pass := getenv("POSTGRES_PASSWORD", "fastag_hub_pass")
		db := getenv("POSTGRES_DB", "fastag_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL: dsn,
		ServerAddr:  getenv("SERVER_ADDR", "0.0.0.0:8080"),
		SessionTTL:  parseDuration(getenv("SESSION_TTL", "24h"), 24*time.Hour),

		ProviderBaseURL:         getenv("PROVIDER_BASE_URL", "https://shauryapay.com"),
		ProviderSubscriptionKey: os.Getenv("PROVIDER_SUBSCRIPTION_KEY"),
		ProviderAggrChannel:     getenv("PROVIDER_AGGR_CHANNEL", "SHSK"),
		ProviderTimeout:         parseDuration(getenv("PROVIDER_TIMEOUT", "10s"), 10*time.Second),

		SMSURL:      getenv("SMS_URL", "http://bhashsms.com/api/sendmsg.php"),
		SMSUser:     os.Getenv("SMS_USER"),
		SMSPassword: os.Getenv("SMS_PASS"),
		SMSSender:   getenv("SMS_SENDER", "SHYPAY"),
		SMSPriority: getenv("SMS_PRIORITY", "ndnd"),
		SMSSType:    getenv("SMS_STYPE", "normal"),

		IssuanceEditState:    getenv("CONFIRM_EDIT_STATE_ISSUANCE", "VEHICLE_DETAILS"),
		ReplacementEditState: getenv("CONFIRM_EDIT_STATE_REPLACEMENT", "USER_MOBILE"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}
