package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.True(t, cfg.EmailCaseInsensitive)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":             "s3cret",
		"STORE_DRIVER":           "Postgres",
		"EMAIL_CASE_INSENSITIVE": "false",
		"JWT_ACCESS_TTL":         "5m",
		"REDIS_ADDR":             "localhost:6379",
		"ENV":                    "production",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.False(t, cfg.EmailCaseInsensitive)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "sqlite"}},
		{"zero ttl", map[string]string{"JWT_SECRET": "x", "JWT_REFRESH_TTL": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
		})
	}
}
