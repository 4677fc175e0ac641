package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goonpay/internal/ledger"
	"goonpay/internal/money"
)

// clearEnv 在測試期間移除變數，結束時由 t.Setenv 還原。
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t, "PORT", "ENV", "LOG_LEVEL", "SEED_DEMO", "DEMO_USERNAME", "DEMO_EMAIL",
		"DEMO_PASSWORD", "DEMO_BALANCE", "NEW_ACCOUNT_BALANCE", "MIN_PASSWORD_LENGTH")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, "demo", cfg.DemoUsername)
	assert.Equal(t, "demo123", cfg.DemoPassword)
	assert.Equal(t, ledger.DefaultPolicy, cfg.Policy)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED_DEMO", "false")
	t.Setenv("DEMO_BALANCE", "2000.50")
	t.Setenv("NEW_ACCOUNT_BALANCE", "250")
	t.Setenv("MIN_PASSWORD_LENGTH", "8")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.SeedDemo)
	assert.Equal(t, money.MustParse("2000.50"), cfg.Policy.DemoSeedBalance)
	assert.Equal(t, money.FromUnits(250), cfg.Policy.NewAccountBalance)
	assert.Equal(t, 8, cfg.Policy.MinCredentialLength)
	assert.NotNil(t, cfg.NewLogger())
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"DEMO_BALANCE", "lots", "DEMO_BALANCE"},
		{"NEW_ACCOUNT_BALANCE", "-1", "NEW_ACCOUNT_BALANCE"},
		{"MIN_PASSWORD_LENGTH", "0", "MIN_PASSWORD_LENGTH"},
		{"SEED_DEMO", "maybe", "SEED_DEMO"},
		{"LOG_LEVEL", "loud", "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
