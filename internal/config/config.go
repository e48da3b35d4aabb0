// Package config loads runtime settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Real environment variables always win
// over the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultGitHubOAuthURL hosts the authorize and token endpoints. GitHub
// Enterprise installs point GITHUB_OAUTH_URL at their own host.
const DefaultGitHubOAuthURL = "https://github.com"

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// AI providers.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port      int
	AppEnv    string
	LogLevel  string
	ClientURL string

	JWTSecret          string
	TokenEncryptionKey string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	GitHubOAuthURL     string
	GitHubAPIURL       string

	StoreDriver string
	DBPath      string
	MongoURI    string
	MongoDB     string

	AIProvider   string
	GroqAPIKey   string
	GroqBaseURL  string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	HTTPClientTimeout time.Duration
	AITimeout         time.Duration
}

// IsDevelopment reports whether APP_ENV is "development". Cookies drop the
// Secure flag and logs switch to text in that mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Load reads the optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("GITHUB_OAUTH_URL", DefaultGitHubOAuthURL)
	v.SetDefault("GITHUB_API_URL", "https://api.github.com")
	v.SetDefault("STORE_DRIVER", StoreSQLite)
	v.SetDefault("DB_PATH", "data/readme.db")
	v.SetDefault("MONGODB_DB", "readme_generator")
	v.SetDefault("AI_PROVIDER", ProviderGroq)
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("GROQ_MODEL", "llama-3.1-8b-instant")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("HTTP_CLIENT_TIMEOUT_SEC", 15)
	v.SetDefault("AI_TIMEOUT_SEC", 60)

	// Required keys have no default; bind them so viper knows them.
	for _, key := range []string{
		"JWT_SECRET", "TOKEN_ENCRYPTION_KEY",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_CALLBACK_URL",
		"MONGODB_URI", "GROQ_API_KEY", "GEMINI_API_KEY",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	port := v.GetInt("PORT")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %q", v.GetString("PORT"))
	}

	cfg := &Config{
		Port:      port,
		AppEnv:    v.GetString("APP_ENV"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		ClientURL: strings.TrimRight(v.GetString("CLIENT_URL"), "/"),

		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenEncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),

		GitHubClientID:     v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  v.GetString("GITHUB_CALLBACK_URL"),
		GitHubOAuthURL:     strings.TrimRight(v.GetString("GITHUB_OAUTH_URL"), "/"),
		GitHubAPIURL:       v.GetString("GITHUB_API_URL"),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		DBPath:      v.GetString("DB_PATH"),
		MongoURI:    v.GetString("MONGODB_URI"),
		MongoDB:     v.GetString("MONGODB_DB"),

		AIProvider:   strings.ToLower(v.GetString("AI_PROVIDER")),
		GroqAPIKey:   v.GetString("GROQ_API_KEY"),
		GroqBaseURL:  v.GetString("GROQ_BASE_URL"),
		GroqModel:    v.GetString("GROQ_MODEL"),
		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
		GeminiModel:  v.GetString("GEMINI_MODEL"),

		HTTPClientTimeout: time.Duration(v.GetInt("HTTP_CLIENT_TIMEOUT_SEC")) * time.Second,
		AITimeout:         time.Duration(v.GetInt("AI_TIMEOUT_SEC")) * time.Second,
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/github/callback", cfg.Port)
	}
	return cfg, nil
}

// Validate reports every problem at once so a misconfigured deploy fails with
// the full list instead of one key per restart.
func (c *Config) Validate() error {
	var errs []error

	missing := func(key, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	missing("JWT_SECRET", c.JWTSecret)
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	missing("GITHUB_CLIENT_ID", c.GitHubClientID)
	missing("GITHUB_CLIENT_SECRET", c.GitHubClientSecret)

	switch c.StoreDriver {
	case StoreSQLite:
		missing("DB_PATH", c.DBPath)
	case StoreMongo:
		missing("MONGODB_URI", c.MongoURI)
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreSQLite, StoreMongo, c.StoreDriver))
	}

	switch c.AIProvider {
	case ProviderGroq:
		missing("GROQ_API_KEY", c.GroqAPIKey)
	case ProviderGemini:
		missing("GEMINI_API_KEY", c.GeminiAPIKey)
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be %q or %q, got %q", ProviderGroq, ProviderGemini, c.AIProvider))
	}

	if c.HTTPClientTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_CLIENT_TIMEOUT_SEC must be positive"))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT_SEC must be positive"))
	}

	return errors.Join(errs...)
}
