package cliparse

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds settings for both the client commands and serve mode.
// Client commands only use ServiceURL, APIKey and StateDir.
type Config struct {
	// Client
	ServiceURL string
	APIKey     string
	StateDir   string

	// Serve
	Port              int
	DatabaseURL       string
	DatabaseType      string
	JWTSecret         string
	RequireEmailVerif bool
}

// ParseClient validates client-command flags and returns the remaining
// arguments (the command name and its own arguments). Global flags go before
// the command: pollpocket -url ... login -email ... The service URL and
// public API key are a startup-fatal misconfiguration when absent, not a
// recoverable error.
func ParseClient(args []string) (Config, []string, error) {
	_ = godotenv.Load()

	var cfg Config

	fs := flag.NewFlagSet("pollpocket", flag.ContinueOnError)
	fs.StringVar(&cfg.ServiceURL, "url", "", "Backend service URL")
	fs.StringVar(&cfg.APIKey, "key", "", "Public API key")
	fs.StringVar(&cfg.StateDir, "state-dir", "", "Directory for the persisted session")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	// Fall back to environment variables
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = os.Getenv("POLLPOCKET_URL")
	}
	if cfg.ServiceURL == "" {
		return Config{}, nil, errors.New("service URL required (use -url or POLLPOCKET_URL env)")
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("POLLPOCKET_ANON_KEY")
	}
	if cfg.APIKey == "" {
		return Config{}, nil, errors.New("API key required (use -key or POLLPOCKET_ANON_KEY env)")
	}

	if cfg.StateDir == "" {
		cfg.StateDir = os.Getenv("POLLPOCKET_STATE_DIR")
	}
	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, nil, errors.New("cannot determine state dir (set -state-dir or POLLPOCKET_STATE_DIR)")
		}
		cfg.StateDir = filepath.Join(base, "pollpocket")
	}

	return cfg, fs.Args(), nil
}

// ParseServe validates serve-mode flags.
func ParseServe(args []string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	fs := flag.NewFlagSet("pollpocket serve", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.APIKey, "key", "", "Public API key clients must present")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Access token signing secret (prefer env)")
	fs.BoolVar(&cfg.RequireEmailVerif, "require-email-verification", false,
		"Sign-ups must verify their email before the account is usable")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3414 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("POLLPOCKET_ANON_KEY")
	}
	if cfg.APIKey == "" {
		return Config{}, errors.New("POLLPOCKET_ANON_KEY required")
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if !cfg.RequireEmailVerif {
		cfg.RequireEmailVerif = os.Getenv("REQUIRE_EMAIL_VERIFICATION") == "true"
	}

	return cfg, nil
}
