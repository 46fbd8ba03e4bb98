// Package database は設定に従ってデータベース接続を開く。
//
// SQLite（modernc.org/sqlite）とPostgreSQL（lib/pq）に対応する。
// クエリのプレースホルダーは sqlx.DB.Rebind でドライバごとに変換する。
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nao1215/golpeguard/pkg/config"
)

// pingTimeout は接続確認のタイムアウト。
const pingTimeout = 5 * time.Second

// Open はデータベース接続を開き、疎通を確認する。
func Open(ctx context.Context, cfg config.Database) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	// インメモリSQLiteは接続ごとに別のDBになるため、接続を1本に固定する
	if cfg.Driver == config.DriverSQLite && strings.Contains(cfg.DSN, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}
	return db, nil
}
