// 企業（認証）サービスのエントリポイント。
// 企業アカウントの登録とログイン、セッショントークンの検証を担当する。
// ログイン時には詐欺報告サービスから自社名義の報告を取得して返す。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/internal/empresa"
	"github.com/nao1215/golpeguard/pkg/config"
	"github.com/nao1215/golpeguard/pkg/httpserver"
	"github.com/nao1215/golpeguard/pkg/logging"
)

func main() {
	cfg, err := config.LoadEmpresa(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger, err := logging.New("empresa", cfg.LogLevel)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := empresa.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("企業サーバーの初期化に失敗", zap.Error(err))
	}
	defer func() {
		if err := server.Close(); err != nil {
			logger.Warn("データベース接続のクローズに失敗", zap.Error(err))
		}
	}()

	if err := httpserver.Run(ctx, server.Addr(), server.Handler(), logger); err != nil {
		logger.Error("企業サービスの実行に失敗", zap.Error(err))
	}
}
