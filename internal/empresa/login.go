package empresa

import (
	"context"
	"fmt"

	"github.com/nao1215/golpeguard/pkg/golpe"
)

// TokenIssuer はセッショントークンを発行する。
type TokenIssuer interface {
	Issue(subject string, claims map[string]any) (string, error)
}

// LoginResult はログイン成功時のレスポンス。
type LoginResult struct {
	// Token は発行したセッショントークン。
	Token string `json:"token"`
	// Empresa は正規化済みの企業識別子。
	Empresa string `json:"empresa"`
	// ScamReports は企業名に一致する詐欺報告。取得に失敗した場合は空。
	ScamReports []golpe.Report `json:"scamReports"`
}

// LoginService は認証・トークン発行・詐欺報告取得をまとめて行う。
type LoginService struct {
	validator *Validator
	issuer    TokenIssuer
	reports   *Aggregator
}

// NewLoginService は新しいLoginServiceを生成する。
func NewLoginService(validator *Validator, issuer TokenIssuer, reports *Aggregator) *LoginService {
	return &LoginService{validator: validator, issuer: issuer, reports: reports}
}

// Login は認証を行い、トークンと詐欺報告を返す。
// 認証に失敗した場合はErrInvalidCredentialsをラップしたエラーを返し、
// 詐欺報告サービスは呼び出さない。
func (s *LoginService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	account, err := s.validator.Validate(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	tok, err := s.issuer.Issue(account.Usuario, map[string]any{"empresaId": account.ID})
	if err != nil {
		return nil, fmt.Errorf("セッショントークンの発行に失敗: %w", err)
	}

	return &LoginResult{
		Token:       tok,
		Empresa:     account.Usuario,
		ScamReports: s.reports.FetchByOwner(ctx, account.Usuario),
	}, nil
}
