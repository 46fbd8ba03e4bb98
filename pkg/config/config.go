// Package config は各サービスの設定を読み込む。
//
// YAMLファイル（任意）を読み込んだ後、環境変数で上書きする。
// どちらにも指定がない項目には開発用のデフォルト値を使用する。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DevJWTSecret は開発用のJWT署名鍵。本番環境では使用できない。
const DevJWTSecret = "dev-secret-key"

const (
	// DriverSQLite はmodernc.org/sqliteドライバを表す。
	DriverSQLite = "sqlite"
	// DriverPostgres はlib/pqドライバを表す。
	DriverPostgres = "postgres"
)

// Database はデータベース接続の設定。
type Database struct {
	// Driver はdatabase/sqlのドライバ名（sqlite または postgres）。
	Driver string `yaml:"driver"`
	// DSN は接続文字列。
	DSN string `yaml:"dsn"`
}

// JWT はセッショントークンの署名設定。
type JWT struct {
	// Secret はHS256署名に使用する共有鍵。
	Secret string `yaml:"secret"`
	// TTL はトークンの有効期間。
	TTL time.Duration `yaml:"ttl"`
	// Issuer はissクレームに設定する発行者名。
	Issuer string `yaml:"issuer"`
}

// Route はゲートウェイのルーティング規則1件。
type Route struct {
	// Prefix はマッチさせるパスのプレフィックス。
	Prefix string `yaml:"prefix"`
	// Target は転送先サービスのベースURL。
	Target string `yaml:"target"`
}

// Gateway はゲートウェイサービスの設定。
type Gateway struct {
	Port        string  `yaml:"port"`
	LogLevel    string  `yaml:"log_level"`
	FrontendURL string  `yaml:"frontend_url"`
	Routes      []Route `yaml:"routes"`
}

// Empresa は企業（認証）サービスの設定。
type Empresa struct {
	Port     string   `yaml:"port"`
	LogLevel string   `yaml:"log_level"`
	Database Database `yaml:"database"`
	JWT      JWT      `yaml:"jwt"`
	// GolpesURL は詐欺報告サービスのベースURL。
	GolpesURL string `yaml:"golpes_url"`
	// ReportTimeout は詐欺報告の取得にかける最大時間。0の場合は無制限。
	ReportTimeout time.Duration `yaml:"report_timeout"`
}

// Golpes は詐欺報告サービスの設定。
type Golpes struct {
	Port     string   `yaml:"port"`
	LogLevel string   `yaml:"log_level"`
	Database Database `yaml:"database"`
}

// file は設定ファイル全体の構造。サービスごとにセクションを持つ。
type file struct {
	Gateway Gateway `yaml:"gateway"`
	Empresa Empresa `yaml:"empresa"`
	Golpes  Golpes  `yaml:"golpes"`
}

// LoadGateway はゲートウェイの設定を読み込む。
func LoadGateway(path string) (*Gateway, error) {
	f, err := readFile(path)
	if err != nil {
		return nil, err
	}
	c := f.Gateway
	c.Port = getEnvOr("PORT", orDefault(c.Port, "8080"))
	c.LogLevel = getEnvOr("LOG_LEVEL", orDefault(c.LogLevel, "info"))
	c.FrontendURL = getEnvOr("FRONTEND_URL", orDefault(c.FrontendURL, "http://localhost:3000"))
	if len(c.Routes) == 0 {
		empresaURL := getEnvOr("EMPRESA_URL", "http://localhost:8082")
		golpesURL := getEnvOr("GOLPES_URL", "http://localhost:8081")
		c.Routes = []Route{
			{Prefix: "/api/cadastroempresas", Target: empresaURL},
			{Prefix: "/api/auth", Target: empresaURL},
			{Prefix: "/api/cadastrogolpes", Target: golpesURL},
		}
	}

	for i, r := range c.Routes {
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("routes[%d]: プレフィックスは / で始まる必要があります: %q", i, r.Prefix)
		}
		if err := validateURL(r.Target); err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", i, err)
		}
	}
	return &c, nil
}

// LoadEmpresa は企業サービスの設定を読み込む。
func LoadEmpresa(path string) (*Empresa, error) {
	f, err := readFile(path)
	if err != nil {
		return nil, err
	}
	c := f.Empresa
	c.Port = getEnvOr("PORT", orDefault(c.Port, "8082"))
	c.LogLevel = getEnvOr("LOG_LEVEL", orDefault(c.LogLevel, "info"))
	c.Database = loadDatabase(c.Database, "/data/empresa.db")
	c.JWT.Secret = getEnvOr("JWT_SECRET", orDefault(c.JWT.Secret, DevJWTSecret))
	c.JWT.Issuer = getEnvOr("JWT_ISSUER", orDefault(c.JWT.Issuer, "golpeguard-empresa"))
	c.GolpesURL = getEnvOr("GOLPES_URL", orDefault(c.GolpesURL, "http://localhost:8081"))

	if c.JWT.TTL == 0 {
		c.JWT.TTL = time.Hour
	}
	if c.JWT.TTL, err = durationEnv("TOKEN_TTL", c.JWT.TTL); err != nil {
		return nil, err
	}
	if c.ReportTimeout == 0 {
		c.ReportTimeout = 5 * time.Second
	}
	if c.ReportTimeout, err = durationEnv("REPORT_TIMEOUT", c.ReportTimeout); err != nil {
		return nil, err
	}

	if c.JWT.TTL <= 0 {
		return nil, fmt.Errorf("トークンの有効期間は正の値である必要があります: %s", c.JWT.TTL)
	}
	if c.ReportTimeout < 0 {
		return nil, fmt.Errorf("report_timeoutは0以上である必要があります: %s", c.ReportTimeout)
	}
	if c.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRETが設定されていません")
	}
	if isProduction() && c.JWT.Secret == DevJWTSecret {
		return nil, errors.New("本番環境では開発用のJWT_SECRETを使用できません")
	}
	if err := validateURL(c.GolpesURL); err != nil {
		return nil, fmt.Errorf("golpes_url: %w", err)
	}
	if err := validateDriver(c.Database.Driver); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadGolpes は詐欺報告サービスの設定を読み込む。
func LoadGolpes(path string) (*Golpes, error) {
	f, err := readFile(path)
	if err != nil {
		return nil, err
	}
	c := f.Golpes
	c.Port = getEnvOr("PORT", orDefault(c.Port, "8081"))
	c.LogLevel = getEnvOr("LOG_LEVEL", orDefault(c.LogLevel, "info"))
	c.Database = loadDatabase(c.Database, "/data/golpes.db")
	if err := validateDriver(c.Database.Driver); err != nil {
		return nil, err
	}
	return &c, nil
}

// readFile はYAML設定ファイルを読み込む。pathが空の場合はゼロ値を返す。
func readFile(path string) (*file, error) {
	f := &file{}
	if path == "" {
		return f, nil
	}

	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルのオープンに失敗: %w", err)
	}
	defer fp.Close()

	if err := yaml.NewDecoder(fp).Decode(f); err != nil {
		return nil, fmt.Errorf("設定ファイルのデコードに失敗: %w", err)
	}
	return f, nil
}

// loadDatabase はDB設定に環境変数とデフォルト値を適用する。
func loadDatabase(db Database, sqlitePath string) Database {
	db.Driver = getEnvOr("DB_DRIVER", orDefault(db.Driver, DriverSQLite))
	db.DSN = getEnvOr("DB_DSN", db.DSN)
	if db.DSN == "" && db.Driver == DriverSQLite {
		db.DSN = sqlitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	return db
}

func validateDriver(driver string) error {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return nil
	default:
		return fmt.Errorf("未対応のDBドライバです: %q（sqlite, postgres のみ対応）", driver)
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("URLが不正です: %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("URLは http(s)://host 形式である必要があります: %q", raw)
	}
	return nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%sの値が不正です: %q: %w", key, v, err)
	}
	return d, nil
}

func isProduction() bool {
	env := strings.ToLower(os.Getenv("APP_ENV"))
	return env == "production" || env == "prod"
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
