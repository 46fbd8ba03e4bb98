// Package httpserver はHTTPサーバーの起動とグレースフルシャットダウンを行う。
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// ShutdownTimeout はシャットダウン時に処理中のリクエストを待つ最大時間。
	ShutdownTimeout = 5 * time.Second
	// readHeaderTimeout はリクエストヘッダーの読み取りタイムアウト。
	readHeaderTimeout = 10 * time.Second
)

// Run はaddrでHTTPサーバーを起動し、ctxがキャンセルされるまでブロックする。
// キャンセル後は処理中のリクエストの完了を待ってから戻る。
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTPサーバーを起動します", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("HTTPサーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	logger.Info("HTTPサーバーを停止しました")
	return nil
}
