package empresa

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations
var migrationsFS embed.FS

const (
	// RoleEmpresa は通常の企業アカウント。
	RoleEmpresa = "EMPRESA"
	// RoleAdmin は管理者アカウント。
	RoleAdmin = "ADMIN"
)

var (
	// ErrAccountNotFound は指定した識別子のアカウントが存在しないことを表す。
	ErrAccountNotFound = errors.New("企業アカウントが見つかりません")
	// ErrDuplicate は同じ識別子のアカウントが既に存在することを表す。
	ErrDuplicate = errors.New("企業アカウントは既に登録されています")
)

// Account は企業アカウント。
type Account struct {
	ID           int64     `db:"id"`
	Usuario      string    `db:"usuario"`
	CNPJ         string    `db:"cnpj"`
	PasswordHash string    `db:"password_hash"`
	Active       bool      `db:"ativo"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// AccountStore は企業アカウントを識別子で検索する。
// normalizedIDは正規化済み（前後空白除去・大文字化）であること。
// 該当なしの場合はErrAccountNotFoundを返す。
type AccountStore interface {
	FindByIdentifier(ctx context.Context, normalizedID string) (*Account, error)
}

// sqlStore はsqlxを使用したAccountStoreの実装。登録も担当する。
type sqlStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// newSQLStore は新しいsqlStoreを生成する。
func newSQLStore(db *sqlx.DB) *sqlStore {
	return &sqlStore{db: db, now: time.Now}
}

// FindByIdentifier は正規化済みの識別子でアカウントを取得する。
func (s *sqlStore) FindByIdentifier(ctx context.Context, normalizedID string) (*Account, error) {
	var a Account
	query := s.db.Rebind(`SELECT id, usuario, cnpj, password_hash, ativo, role, created_at
		FROM empresas WHERE usuario = ?`)
	err := s.db.GetContext(ctx, &a, query, normalizedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("企業アカウントの取得に失敗: %w", err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// Create はアカウントを登録し、採番されたIDと登録日時をaに設定する。
// Usuarioは呼び出し側で正規化しておくこと。
func (s *sqlStore) Create(ctx context.Context, a *Account) error {
	if a.Role == "" {
		a.Role = RoleEmpresa
	}
	a.CreatedAt = s.now().UTC().Truncate(time.Second)

	query := s.db.Rebind(`INSERT INTO empresas
		(usuario, cnpj, password_hash, ativo, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.QueryRowxContext(ctx, query,
		a.Usuario, a.CNPJ, a.PasswordHash, a.Active, a.Role, a.CreatedAt,
	).Scan(&a.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("企業アカウントの登録に失敗: %w", err)
	}
	return nil
}

// isUniqueViolation は一意制約違反のエラーかどうかを判定する。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// 拡張エラーコードが無効な接続では基本コードとメッセージで判定する
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}
