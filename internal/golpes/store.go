package golpes

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nao1215/golpeguard/pkg/golpe"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrReportNotFound は指定IDの詐欺報告が存在しないことを表す。
var ErrReportNotFound = errors.New("詐欺報告が見つかりません")

// reportRow はgolpesテーブルの1行。
type reportRow struct {
	ID              int64         `db:"id"`
	NomeEmpresa     string        `db:"nome_empresa"`
	Local           string        `db:"local"`
	MeioContato     string        `db:"meio_contato"`
	Descricao       string        `db:"descricao"`
	ContatoGolpista string        `db:"contato_golpista"`
	EmpresaID       sql.NullInt64 `db:"empresa_id"`
	CriadoEm        time.Time     `db:"criado_em"`
}

func (r reportRow) toReport() golpe.Report {
	rep := golpe.Report{
		ID:             r.ID,
		CompanyName:    r.NomeEmpresa,
		Location:       r.Local,
		ContactChannel: r.MeioContato,
		Description:    r.Descricao,
		ScammerContact: r.ContatoGolpista,
		CreatedAt:      r.CriadoEm.UTC(),
	}
	if r.EmpresaID.Valid {
		id := r.EmpresaID.Int64
		rep.EmpresaID = &id
	}
	return rep
}

const selectColumns = `SELECT id, nome_empresa, local, meio_contato, descricao, contato_golpista, empresa_id, criado_em FROM golpes`

// Store は詐欺報告の永続化を行う。
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Create は詐欺報告を登録し、採番されたIDと登録日時をrに設定する。
// 企業名は正規化して保存する。
func (s *Store) Create(ctx context.Context, r *golpe.Report) error {
	r.CompanyName = golpe.NormalizeName(r.CompanyName)
	r.CreatedAt = s.now().UTC().Truncate(time.Second)

	var empresaID sql.NullInt64
	if r.EmpresaID != nil {
		empresaID = sql.NullInt64{Int64: *r.EmpresaID, Valid: true}
	}

	query := s.db.Rebind(`INSERT INTO golpes
		(nome_empresa, local, meio_contato, descricao, contato_golpista, empresa_id, criado_em)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, query,
		r.CompanyName, r.Location, r.ContactChannel, r.Description, r.ScammerContact, empresaID, r.CreatedAt,
	).Scan(&r.ID); err != nil {
		return fmt.Errorf("詐欺報告の登録に失敗: %w", err)
	}
	return nil
}

// List はすべての詐欺報告を新しい順に返す。
func (s *Store) List(ctx context.Context) ([]golpe.Report, error) {
	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, selectColumns+` ORDER BY criado_em DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("詐欺報告の一覧取得に失敗: %w", err)
	}
	return toReports(rows), nil
}

// FindByCompanyName は企業名に一致する詐欺報告を新しい順に返す。
// 名前は正規化してから比較する。
func (s *Store) FindByCompanyName(ctx context.Context, name string) ([]golpe.Report, error) {
	var rows []reportRow
	query := s.db.Rebind(selectColumns + ` WHERE nome_empresa = ? ORDER BY criado_em DESC, id DESC`)
	if err := s.db.SelectContext(ctx, &rows, query, golpe.NormalizeName(name)); err != nil {
		return nil, fmt.Errorf("企業名での詐欺報告検索に失敗: %w", err)
	}
	return toReports(rows), nil
}

// Get はIDで詐欺報告を取得する。
func (s *Store) Get(ctx context.Context, id int64) (*golpe.Report, error) {
	var row reportRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(selectColumns+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("詐欺報告の取得に失敗: %w", err)
	}
	r := row.toReport()
	return &r, nil
}

// Delete はIDで詐欺報告を削除する。
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM golpes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("詐欺報告の削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrReportNotFound
	}
	return nil
}

// toReports はDB行をレスポンス用の構造体に変換する。結果が0件でも空スライスを返す。
func toReports(rows []reportRow) []golpe.Report {
	reports := make([]golpe.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.toReport())
	}
	return reports
}
