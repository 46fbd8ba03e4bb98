package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nao1215/golpeguard/pkg/config"
)

// TestOpen はデータベース接続を検証する。
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("インメモリSQLiteに接続できること", func(t *testing.T) {
		t.Parallel()

		db, err := Open(context.Background(), config.Database{Driver: config.DriverSQLite, DSN: ":memory:"})
		if err != nil {
			t.Fatalf("Open()でエラーが発生: %v", err)
		}
		defer db.Close()

		if db.Stats().MaxOpenConnections != 1 {
			t.Errorf("MaxOpenConnections = %d, want 1", db.Stats().MaxOpenConnections)
		}
		if db.DriverName() != "sqlite" {
			t.Errorf("DriverName() = %q, want %q", db.DriverName(), "sqlite")
		}
	})

	t.Run("ファイルSQLiteに接続できること", func(t *testing.T) {
		t.Parallel()

		dsn := filepath.Join(t.TempDir(), "test.db")
		db, err := Open(context.Background(), config.Database{Driver: config.DriverSQLite, DSN: dsn})
		if err != nil {
			t.Fatalf("Open()でエラーが発生: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
			t.Errorf("テーブル作成に失敗: %v", err)
		}
	})

	t.Run("未登録のドライバはエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := Open(context.Background(), config.Database{Driver: "nope", DSN: "x"}); err == nil {
			t.Fatal("未登録のドライバでエラーが返るべき")
		}
	})
}
