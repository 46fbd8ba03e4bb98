// API Gatewayサービスのエントリポイント。
// パスのプレフィックスに従ってリクエストを企業サービスと詐欺報告サービスに転送する。
// 外部からアクセス可能な唯一のサービスとなる。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/internal/gateway"
	"github.com/nao1215/golpeguard/pkg/config"
	"github.com/nao1215/golpeguard/pkg/httpserver"
	"github.com/nao1215/golpeguard/pkg/logging"
)

func main() {
	cfg, err := config.LoadGateway(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger, err := logging.New("gateway", cfg.LogLevel)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	server, err := gateway.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Gatewayサーバーの初期化に失敗", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := httpserver.Run(ctx, server.Addr(), server.Handler(), logger); err != nil {
		logger.Fatal("Gatewayサービスの実行に失敗", zap.Error(err))
	}
}
