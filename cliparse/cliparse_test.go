// cliparse/cliparse_test.go
package cliparse

import (
	"testing"
)

func TestParseClient_EnvVars(t *testing.T) {
	t.Setenv("POLLPOCKET_URL", "http://localhost:3414")
	t.Setenv("POLLPOCKET_ANON_KEY", "anon-key")
	t.Setenv("POLLPOCKET_STATE_DIR", "/tmp/pollpocket-test")

	cfg, _, err := ParseClient([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServiceURL != "http://localhost:3414" {
		t.Errorf("expected service URL from env, got %q", cfg.ServiceURL)
	}
	if cfg.APIKey != "anon-key" {
		t.Errorf("expected API key from env, got %q", cfg.APIKey)
	}
	if cfg.StateDir != "/tmp/pollpocket-test" {
		t.Errorf("expected state dir from env, got %q", cfg.StateDir)
	}
}

func TestParseClient_CLIOverridesEnv(t *testing.T) {
	t.Setenv("POLLPOCKET_URL", "http://env-url")
	t.Setenv("POLLPOCKET_ANON_KEY", "env-key")

	cfg, _, err := ParseClient([]string{"-url", "http://flag-url", "-key", "flag-key", "-state-dir", "/tmp/x"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServiceURL != "http://flag-url" {
		t.Errorf("CLI should override env: got %q", cfg.ServiceURL)
	}
	if cfg.APIKey != "flag-key" {
		t.Errorf("CLI should override env: got %q", cfg.APIKey)
	}
}

func TestParseClient_FlagsBeforeCommand(t *testing.T) {
	t.Setenv("POLLPOCKET_URL", "")
	t.Setenv("POLLPOCKET_ANON_KEY", "")

	// Global flags precede the command; the command and its own arguments
	// come back untouched for the dispatcher.
	cfg, rest, err := ParseClient([]string{
		"-url", "http://flag-url", "-key", "flag-key", "-state-dir", "/tmp/x",
		"vote", "poll-1", "Pizza",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServiceURL != "http://flag-url" {
		t.Errorf("expected service URL from flag, got %q", cfg.ServiceURL)
	}
	if len(rest) != 3 || rest[0] != "vote" || rest[1] != "poll-1" || rest[2] != "Pizza" {
		t.Errorf("expected command args passed through, got %v", rest)
	}
}

func TestParseClient_MissingURLIsFatal(t *testing.T) {
	t.Setenv("POLLPOCKET_URL", "")
	t.Setenv("POLLPOCKET_ANON_KEY", "anon-key")

	if _, _, err := ParseClient([]string{}); err == nil {
		t.Error("expected error when service URL is absent")
	}
}

func TestParseClient_MissingKeyIsFatal(t *testing.T) {
	t.Setenv("POLLPOCKET_URL", "http://localhost:3414")
	t.Setenv("POLLPOCKET_ANON_KEY", "")

	if _, _, err := ParseClient([]string{}); err == nil {
		t.Error("expected error when API key is absent")
	}
}

func TestParseServe_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("POLLPOCKET_ANON_KEY", "anon-key")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := ParseServe([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3414 {
		t.Errorf("expected default port 3414, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default database type sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.RequireEmailVerif {
		t.Error("expected email verification off by default")
	}
}

func TestParseServe_RequiredSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database URL",
			env: map[string]string{
				"DATABASE_URL":        "",
				"POLLPOCKET_ANON_KEY": "k",
				"JWT_SECRET":          "s",
			},
		},
		{
			name: "missing API key",
			env: map[string]string{
				"DATABASE_URL":        "file:test.db",
				"POLLPOCKET_ANON_KEY": "",
				"JWT_SECRET":          "s",
			},
		},
		{
			name: "missing JWT secret",
			env: map[string]string{
				"DATABASE_URL":        "file:test.db",
				"POLLPOCKET_ANON_KEY": "k",
				"JWT_SECRET":          "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseServe([]string{}); err == nil {
				t.Error("expected error for missing required setting")
			}
		})
	}
}

func TestParseServe_BadDatabaseType(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("POLLPOCKET_ANON_KEY", "k")
	t.Setenv("JWT_SECRET", "s")

	if _, err := ParseServe([]string{"-t", "mysql"}); err == nil {
		t.Error("expected error for unsupported database type")
	}
}
