package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	LeaveDB DatabaseConfig
	JWT     JWTConfig
	BioTime BioTimeConfig
	Roster  RosterConfig
	Export  ExportConfig
	Clients []ServiceAccount
}

// DatabaseConfig points at the leave-management database. The service
// only ever reads from it.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// BioTimeConfig describes the biometric appliance API. The appliance
// issues tokens over an OAuth2 client-credentials grant.
type BioTimeConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type RosterConfig struct {
	// PreferredPageSize is used for full-matrix report fetches; the
	// absence-summary report uses the caller's page size as-is.
	PreferredPageSize int
	// WeeklyOffDay is the rest day of the week (0 = Sunday).
	WeeklyOffDay time.Weekday
	// LeaveFetchLimit caps how many leave requests are pulled per month.
	LeaveFetchLimit int
	// StatsFetchLimit caps how many aggregated stat rows are pulled.
	StatsFetchLimit int
}

type ExportConfig struct {
	Dir string
}

// ServiceAccount is an API client allowed to request tokens. SecretHash
// is a bcrypt hash, never the plain secret.
type ServiceAccount struct {
	ID         string
	SecretHash string
}

func Load() (*Config, error) {
	// A missing .env is fine in production; real env vars win either way.
	_ = godotenv.Load()

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("LEAVE_DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_DB_PORT: %w", err)
	}

	config.LeaveDB = DatabaseConfig{
		Host:     getEnv("LEAVE_DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("LEAVE_DB_USER", "postgres"),
		Password: getEnv("LEAVE_DB_PASSWORD", ""),
		Name:     getEnv("LEAVE_DB_NAME", "leave_management"),
		SSLMode:  getEnv("LEAVE_DB_SSL_MODE", "disable"),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	biotimeTimeout, err := time.ParseDuration(getEnv("BIOTIME_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BIOTIME_TIMEOUT: %w", err)
	}

	config.BioTime = BioTimeConfig{
		BaseURL:      getEnv("BIOTIME_BASE_URL", ""),
		TokenURL:     getEnv("BIOTIME_TOKEN_URL", ""),
		ClientID:     getEnv("BIOTIME_CLIENT_ID", ""),
		ClientSecret: getEnv("BIOTIME_CLIENT_SECRET", ""),
		Timeout:      biotimeTimeout,
	}

	preferredPageSize, err := strconv.Atoi(getEnv("ROSTER_PREFERRED_PAGE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROSTER_PREFERRED_PAGE_SIZE: %w", err)
	}

	weeklyOffDay, err := strconv.Atoi(getEnv("ROSTER_WEEKLY_OFF_DAY", "0"))
	if err != nil || weeklyOffDay < 0 || weeklyOffDay > 6 {
		return nil, fmt.Errorf("invalid ROSTER_WEEKLY_OFF_DAY: must be 0 (Sunday) through 6 (Saturday)")
	}

	leaveLimit, err := strconv.Atoi(getEnv("ROSTER_LEAVE_FETCH_LIMIT", "2000"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROSTER_LEAVE_FETCH_LIMIT: %w", err)
	}

	statsLimit, err := strconv.Atoi(getEnv("ROSTER_STATS_FETCH_LIMIT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROSTER_STATS_FETCH_LIMIT: %w", err)
	}

	config.Roster = RosterConfig{
		PreferredPageSize: preferredPageSize,
		WeeklyOffDay:      time.Weekday(weeklyOffDay),
		LeaveFetchLimit:   leaveLimit,
		StatsFetchLimit:   statsLimit,
	}

	config.Export = ExportConfig{
		Dir: getEnv("EXPORT_DIR", "./exports"),
	}

	clients, err := parseServiceAccounts(getEnv("API_CLIENTS", ""))
	if err != nil {
		return nil, err
	}
	config.Clients = clients

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LeaveDB.Password == "" {
		return fmt.Errorf("LEAVE_DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.BioTime.BaseURL == "" {
		return fmt.Errorf("BIOTIME_BASE_URL is required")
	}
	if c.BioTime.TokenURL == "" {
		return fmt.Errorf("BIOTIME_TOKEN_URL is required")
	}
	if c.BioTime.ClientID == "" {
		return fmt.Errorf("BIOTIME_CLIENT_ID is required")
	}
	if c.BioTime.ClientSecret == "" {
		return fmt.Errorf("BIOTIME_CLIENT_SECRET is required")
	}
	if len(c.Clients) == 0 {
		return fmt.Errorf("API_CLIENTS is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.LeaveDB.User,
		c.LeaveDB.Password,
		c.LeaveDB.Host,
		c.LeaveDB.Port,
		c.LeaveDB.Name,
		c.LeaveDB.SSLMode,
	)
}

// parseServiceAccounts parses "id:bcryptHash,id2:bcryptHash" pairs.
// Bcrypt hashes contain '$' but never ':' or ',', so the split is safe.
func parseServiceAccounts(raw string) ([]ServiceAccount, error) {
	if raw == "" {
		return nil, nil
	}
	var accounts []ServiceAccount
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, hash, ok := strings.Cut(pair, ":")
		if !ok || id == "" || hash == "" {
			return nil, fmt.Errorf("invalid API_CLIENTS entry %q: expected id:bcrypt-hash", pair)
		}
		accounts = append(accounts, ServiceAccount{ID: id, SecretHash: hash})
	}
	return accounts, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
