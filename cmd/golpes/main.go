// 詐欺報告サービスのエントリポイント。
// 詐欺報告の登録・検索・削除を担当する。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/internal/golpes"
	"github.com/nao1215/golpeguard/pkg/config"
	"github.com/nao1215/golpeguard/pkg/httpserver"
	"github.com/nao1215/golpeguard/pkg/logging"
)

func main() {
	cfg, err := config.LoadGolpes(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger, err := logging.New("golpes", cfg.LogLevel)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := golpes.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("詐欺報告サーバーの初期化に失敗", zap.Error(err))
	}
	defer func() {
		if err := server.Close(); err != nil {
			logger.Warn("データベース接続のクローズに失敗", zap.Error(err))
		}
	}()

	if err := httpserver.Run(ctx, server.Addr(), server.Handler(), logger); err != nil {
		logger.Error("詐欺報告サービスの実行に失敗", zap.Error(err))
	}
}
