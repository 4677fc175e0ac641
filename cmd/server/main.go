// cmd/server/main.go

// GoonPay 帳本的 HTTP 服務入口。
// 此檔案負責載入設定、初始化 ledger 與 server 模組，並啟動 HTTP 伺服器；
// 收到 SIGINT/SIGTERM 時等待進行中的請求完成後結束。
// 帳本僅存在於記憶體中，程序結束即清空。

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goonpay/internal/config"
	"goonpay/internal/ledger"
	"goonpay/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	eng := ledger.NewEngine(nil, ledger.WithPolicy(cfg.Policy), ledger.WithLogger(logger))
	if cfg.SeedDemo {
		if _, err := eng.SeedDemo(cfg.DemoUsername, cfg.DemoEmail, cfg.DemoPassword); err != nil {
			slog.Error("seeding demo account failed", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewServer(eng, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "env", cfg.Env, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	slog.Info("server exited",
		"accounts", eng.Store().Len(),
		"transactions", eng.LogLen(),
		"total_supply", eng.TotalSupply().String(),
	)
}
