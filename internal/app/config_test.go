package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Addr:     "0.0.0.0:8080",
		Timezone: "Asia/Kolkata",
		Storage:  StorageConfig{Driver: DriverFile, Dir: "data"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "file driver", mutate: func(*Config) {}},
		{name: "memory driver", mutate: func(c *Config) { c.Storage.Driver = DriverMemory }},
		{
			name: "postgres with url",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverPostgres
				c.Storage.DatabaseURL = "postgres://mis@localhost/mis"
			},
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.Storage.Driver = DriverPostgres },
			wantErr: "database URL is required",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "sqlite" },
			wantErr: `unknown storage driver "sqlite"`,
		},
		{
			name:    "hashes without pepper",
			mutate:  func(c *Config) { c.AdminKeyHashes = []string{"ab"} },
			wantErr: "MIS_API_KEY_PEPPER",
		},
		{
			name:    "bad time zone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr: "load time zone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9000")

	cfg := validConfig()
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/db", cfg.Storage.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)

	cfg = validConfig()
	cfg.Addr = "127.0.0.1:7000"
	cfg.Storage.DatabaseURL = "postgres://explicit/db"
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit/db", cfg.Storage.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}
