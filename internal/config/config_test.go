// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a fully valid development config for mutation in
// validation tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Spotify.ClientID = "client-id"
	cfg.Spotify.ClientSecret = "client-secret"
	cfg.Security.AuthMode = "none"
	return cfg
}

func TestValidateValid(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on valid config = %v", err)
	}
}

func TestValidateSpotify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.Spotify.ClientID = "" },
			wantErr: "SPOTIFY_CLIENT_ID",
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.Spotify.ClientSecret = "" },
			wantErr: "SPOTIFY_CLIENT_SECRET",
		},
		{
			name:    "placeholder client secret",
			mutate:  func(c *Config) { c.Spotify.ClientSecret = "CHANGEME" },
			wantErr: "placeholder",
		},
		{
			name:    "invalid base url scheme",
			mutate:  func(c *Config) { c.Spotify.BaseURL = "ftp://api.spotify.com" },
			wantErr: "SPOTIFY_BASE_URL",
		},
		{
			name:    "invalid token url",
			mutate:  func(c *Config) { c.Spotify.TokenURL = "not a url at all\x7f" },
			wantErr: "SPOTIFY_TOKEN_URL",
		},
		{
			name:    "bad market code",
			mutate:  func(c *Config) { c.Spotify.Market = "USA" },
			wantErr: "SPOTIFY_MARKET",
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.Spotify.Timeout = time.Millisecond },
			wantErr: "SPOTIFY_TIMEOUT",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Spotify.MaxRetries = -1 },
			wantErr: "SPOTIFY_MAX_RETRIES",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.Spotify.RateLimitRPS = 0 },
			wantErr: "SPOTIFY_RATE_LIMIT_RPS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIngest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "release limit zero",
			mutate:  func(c *Config) { c.Ingest.ReleaseLimit = 0 },
			wantErr: "INGEST_RELEASE_LIMIT",
		},
		{
			name:    "release limit above API cap",
			mutate:  func(c *Config) { c.Ingest.ReleaseLimit = 51 },
			wantErr: "INGEST_RELEASE_LIMIT",
		},
		{
			name:    "batch size zero",
			mutate:  func(c *Config) { c.Ingest.BatchSize = 0 },
			wantErr: "INGEST_BATCH_SIZE",
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Ingest.Interval = time.Second },
			wantErr: "INGEST_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject port 0")
	}

	cfg = validConfig()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject port 70000")
	}

	cfg = validConfig()
	cfg.API.MaxPageSize = 5 // below DefaultPageSize of 20
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject MaxPageSize < DefaultPageSize")
	}
}

func TestValidateAuthMode(t *testing.T) {
	t.Parallel()

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AuthMode = "oauth2"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should reject unknown auth mode")
		}
	})

	t.Run("none rejected in production", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AuthMode = "none"
		cfg.Server.Environment = "production"
		cfg.Security.CORSOrigins = []string{"https://app.example.com"}
		err := cfg.Validate()
		if err == nil {
			t.Fatal("Validate() should reject AUTH_MODE=none in production")
		}
		if !strings.Contains(err.Error(), "AUTH_MODE=none") {
			t.Errorf("error = %v, want mention of AUTH_MODE=none", err)
		}
	})

	t.Run("jwt requires secret", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AuthMode = "jwt"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should require JWT_SECRET for jwt mode")
		}
	})

	t.Run("jwt secret too short", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AuthMode = "jwt"
		cfg.Security.JWTSecret = "short"
		err := cfg.Validate()
		if err == nil {
			t.Fatal("Validate() should reject short JWT secret")
		}
		if !strings.Contains(err.Error(), "32 characters") {
			t.Errorf("error = %v, want mention of 32 characters", err)
		}
	})

	t.Run("jwt valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AuthMode = "jwt"
		cfg.Security.JWTSecret = strings.Repeat("s", 32)
		cfg.Security.AdminUsername = "admin"
		cfg.Security.AdminPassword = "a-long-admin-password"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("basic requires credentials", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AuthMode = "basic"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should require admin credentials for basic mode")
		}
	})

	t.Run("short admin password", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AuthMode = "basic"
		cfg.Security.AdminUsername = "admin"
		cfg.Security.AdminPassword = "short"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should reject a short admin password")
		}
	})
}

func TestValidateCORS(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.Environment = "production"
	cfg.Security.AuthMode = "jwt"
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	cfg.Security.AdminUsername = "admin"
	cfg.Security.AdminPassword = "a-long-admin-password"
	cfg.Security.CORSOrigins = []string{"*"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should reject wildcard CORS in production with auth")
	}
	if !strings.Contains(err.Error(), "CORS_ORIGINS") {
		t.Errorf("error = %v, want mention of CORS_ORIGINS", err)
	}

	// Specific origins pass
	cfg.Security.CORSOrigins = []string{"https://app.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil with specific origins", err)
	}
}

func TestValidateRateLimits(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject zero rate limit requests")
	}

	// Disabled rate limiting skips bounds checks entirely
	cfg = validConfig()
	cfg.Security.RateLimitReqs = 0
	cfg.Security.RateLimitDisabled = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil when rate limiting disabled", err)
	}
}

func TestValidateNATS(t *testing.T) {
	t.Parallel()

	t.Run("disabled skips validation", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = false
		cfg.NATS.URL = "garbage"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil when NATS disabled", err)
		}
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.URL = "http://localhost:4222"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should reject http scheme for NATS")
		}
	})

	t.Run("bad dedup store", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.DedupStore = "redis"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should reject unknown dedup store")
		}
	})

	t.Run("badger requires path", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.DedupStore = "badger"
		cfg.NATS.DedupStorePath = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should require a path for badger dedup store")
		}
	})

	t.Run("valid enabled config", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestValidateArchive(t *testing.T) {
	t.Parallel()

	t.Run("disabled skips validation", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Archive.Enabled = false
		cfg.Archive.Bucket = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil when archive disabled", err)
		}
	})

	t.Run("enabled requires bucket", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Archive.Enabled = true
		cfg.Archive.Bucket = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should require ARCHIVE_BUCKET when enabled")
		}
	})

	t.Run("bad bucket name", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Archive.Enabled = true
		cfg.Archive.Bucket = "UPPERCASE_BUCKET"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() should reject uppercase bucket names")
		}
	})

	t.Run("valid bucket", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Archive.Enabled = true
		cfg.Archive.Bucket = "trackscope-archive"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestIsProduction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{"development", false},
		{"dev", false},
		{"", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Server: ServerConfig{Environment: tt.env}}
			if got := cfg.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() with env %q = %v, want %v", tt.env, got, tt.want)
			}
		})
	}
}

func TestContainsPlaceholder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  bool
	}{
		{"CHANGEME", true},
		{"your_secret_here", true},
		{"replace-with-real-value", true},
		{"todo-set-this", true},
		{"ax8f2k1m9q7w3e5r6t0y", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			if got := containsPlaceholder(tt.value); got != tt.want {
				t.Errorf("containsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidateLogging(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject unknown log level")
	}

	cfg = validConfig()
	cfg.Logging.Format = "logfmt"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject unknown log format")
	}
}
