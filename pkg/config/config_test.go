package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv はテストに影響する環境変数を空にする。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "FRONTEND_URL", "EMPRESA_URL", "GOLPES_URL",
		"DB_DRIVER", "DB_DSN", "JWT_SECRET", "JWT_ISSUER", "TOKEN_TTL",
		"REPORT_TIMEOUT", "APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

// writeConfig は一時ディレクトリに設定ファイルを書き出す。
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("設定ファイルの書き込みに失敗: %v", err)
	}
	return path
}

// TestLoadEmpresa は企業サービスの設定読み込みを検証する。
func TestLoadEmpresa(t *testing.T) {
	t.Run("設定ファイルなしでデフォルト値が使用されること", func(t *testing.T) {
		clearEnv(t)

		c, err := LoadEmpresa("")
		if err != nil {
			t.Fatalf("LoadEmpresa()でエラーが発生: %v", err)
		}
		if c.Port != "8082" {
			t.Errorf("Port = %q, want %q", c.Port, "8082")
		}
		if c.JWT.TTL != time.Hour {
			t.Errorf("JWT.TTL = %v, want %v", c.JWT.TTL, time.Hour)
		}
		if c.JWT.Secret != DevJWTSecret {
			t.Errorf("JWT.Secret = %q, want %q", c.JWT.Secret, DevJWTSecret)
		}
		if c.ReportTimeout != 5*time.Second {
			t.Errorf("ReportTimeout = %v, want %v", c.ReportTimeout, 5*time.Second)
		}
		if c.Database.Driver != DriverSQLite {
			t.Errorf("Database.Driver = %q, want %q", c.Database.Driver, DriverSQLite)
		}
		if !strings.HasPrefix(c.Database.DSN, "/data/empresa.db") {
			t.Errorf("Database.DSN = %q", c.Database.DSN)
		}
	})

	t.Run("設定ファイルの値を環境変数で上書きできること", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
empresa:
  port: "9000"
  jwt:
    secret: from-file
    ttl: 30m
  golpes_url: http://golpes:8081
  report_timeout: 2s
`)
		t.Setenv("JWT_SECRET", "from-env")

		c, err := LoadEmpresa(path)
		if err != nil {
			t.Fatalf("LoadEmpresa()でエラーが発生: %v", err)
		}
		if c.Port != "9000" {
			t.Errorf("Port = %q, want %q", c.Port, "9000")
		}
		if c.JWT.Secret != "from-env" {
			t.Errorf("JWT.Secret = %q, want %q", c.JWT.Secret, "from-env")
		}
		if c.JWT.TTL != 30*time.Minute {
			t.Errorf("JWT.TTL = %v, want %v", c.JWT.TTL, 30*time.Minute)
		}
		if c.GolpesURL != "http://golpes:8081" {
			t.Errorf("GolpesURL = %q, want %q", c.GolpesURL, "http://golpes:8081")
		}
		if c.ReportTimeout != 2*time.Second {
			t.Errorf("ReportTimeout = %v, want %v", c.ReportTimeout, 2*time.Second)
		}
	})

	t.Run("TOKEN_TTLが不正な場合エラーになること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TOKEN_TTL", "one-hour")

		if _, err := LoadEmpresa(""); err == nil {
			t.Fatal("不正なTOKEN_TTLでエラーが返るべき")
		}
	})

	t.Run("負のTOKEN_TTLはエラーになること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TOKEN_TTL", "-1m")

		if _, err := LoadEmpresa(""); err == nil {
			t.Fatal("負のTOKEN_TTLでエラーが返るべき")
		}
	})

	t.Run("本番環境で開発用シークレットは拒否されること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")

		if _, err := LoadEmpresa(""); err == nil {
			t.Fatal("本番環境で開発用シークレットを使用した場合エラーが返るべき")
		}
	})

	t.Run("未対応のDBドライバはエラーになること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "mysql")

		if _, err := LoadEmpresa(""); err == nil {
			t.Fatal("未対応のドライバでエラーが返るべき")
		}
	})

	t.Run("存在しない設定ファイルはエラーになること", func(t *testing.T) {
		clearEnv(t)

		if _, err := LoadEmpresa(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
			t.Fatal("存在しないファイルでエラーが返るべき")
		}
	})
}

// TestLoadGateway はゲートウェイの設定読み込みを検証する。
func TestLoadGateway(t *testing.T) {
	t.Run("ルートが未指定の場合デフォルトルートが使用されること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EMPRESA_URL", "http://empresa:8082")
		t.Setenv("GOLPES_URL", "http://golpes:8081")

		c, err := LoadGateway("")
		if err != nil {
			t.Fatalf("LoadGateway()でエラーが発生: %v", err)
		}
		want := map[string]string{
			"/api/cadastroempresas": "http://empresa:8082",
			"/api/auth":             "http://empresa:8082",
			"/api/cadastrogolpes":   "http://golpes:8081",
		}
		if len(c.Routes) != len(want) {
			t.Fatalf("len(Routes) = %d, want %d", len(c.Routes), len(want))
		}
		for _, r := range c.Routes {
			if want[r.Prefix] != r.Target {
				t.Errorf("Routes[%q] = %q, want %q", r.Prefix, r.Target, want[r.Prefix])
			}
		}
	})

	t.Run("設定ファイルのルートが使用されること", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
gateway:
  routes:
    - prefix: /api/x
      target: http://x:1
`)
		c, err := LoadGateway(path)
		if err != nil {
			t.Fatalf("LoadGateway()でエラーが発生: %v", err)
		}
		if len(c.Routes) != 1 || c.Routes[0].Prefix != "/api/x" || c.Routes[0].Target != "http://x:1" {
			t.Errorf("Routes = %+v", c.Routes)
		}
	})

	t.Run("転送先URLが不正な場合エラーになること", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
gateway:
  routes:
    - prefix: /api/x
      target: x:1
`)
		if _, err := LoadGateway(path); err == nil {
			t.Fatal("不正なURLでエラーが返るべき")
		}
	})

	t.Run("スラッシュで始まらないプレフィックスはエラーになること", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
gateway:
  routes:
    - prefix: api
      target: http://x:1
`)
		if _, err := LoadGateway(path); err == nil {
			t.Fatal("不正なプレフィックスでエラーが返るべき")
		}
	})
}

// TestLoadGolpes は詐欺報告サービスの設定読み込みを検証する。
func TestLoadGolpes(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://u:p@localhost/golpes?sslmode=disable")

	c, err := LoadGolpes("")
	if err != nil {
		t.Fatalf("LoadGolpes()でエラーが発生: %v", err)
	}
	if c.Port != "8081" {
		t.Errorf("Port = %q, want %q", c.Port, "8081")
	}
	if c.Database.Driver != DriverPostgres {
		t.Errorf("Database.Driver = %q, want %q", c.Database.Driver, DriverPostgres)
	}
	if c.Database.DSN != "postgres://u:p@localhost/golpes?sslmode=disable" {
		t.Errorf("Database.DSN = %q", c.Database.DSN)
	}
}
