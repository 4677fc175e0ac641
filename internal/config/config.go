// internal/config/config.go
//
// 讀取執行期設定：先嘗試載入 .env，再以環境變數覆寫預設值。
// 帳本常數（示範帳戶與新帳戶初始餘額、最短密碼長度）也由此組成 ledger.Policy。

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"goonpay/internal/ledger"
	"goonpay/internal/money"
)

// Config 為服務設定。
type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	SeedDemo     bool
	DemoUsername string
	DemoEmail    string
	DemoPassword string

	Policy ledger.Policy
}

// Load 讀取 .env（不存在時僅記錄警告）後呼叫 FromEnv。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on system environment variables")
	}
	return FromEnv()
}

// FromEnv 由環境變數組成設定；任一數值格式錯誤即回傳錯誤。
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		DemoUsername: getEnv("DEMO_USERNAME", "demo"),
		DemoEmail:    getEnv("DEMO_EMAIL", "demo@goonpay.com"),
		DemoPassword: getEnv("DEMO_PASSWORD", "demo123"),
		Policy:       ledger.DefaultPolicy,
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.SeedDemo, err = strconv.ParseBool(getEnv("SEED_DEMO", "true")); err != nil {
		return nil, fmt.Errorf("SEED_DEMO: %w", err)
	}
	if cfg.Policy.DemoSeedBalance, err = parseBalance("DEMO_BALANCE", cfg.Policy.DemoSeedBalance); err != nil {
		return nil, err
	}
	if cfg.Policy.NewAccountBalance, err = parseBalance("NEW_ACCOUNT_BALANCE", cfg.Policy.NewAccountBalance); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv("MIN_PASSWORD_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("MIN_PASSWORD_LENGTH: must be a positive integer, got %q", v)
		}
		cfg.Policy.MinCredentialLength = n
	}
	return cfg, nil
}

// IsProduction 回報是否為正式環境。
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NewLogger 依環境建立 slog.Logger：正式環境輸出 JSON，其餘輸出文字。
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseBalance(key string, fallback money.Amount) (money.Amount, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	a, err := money.Parse(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if a < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %s", key, a)
	}
	return a, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

// getEnv 取環境變數，未設定時回傳 fallback。
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
