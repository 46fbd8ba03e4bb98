package empresa

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/golpeguard/pkg/golpe"
)

// ErrInvalidCredentials は認証失敗を表す。
// 失敗の種類（ErrNotFound等）はすべてこのエラーをラップしている。
var ErrInvalidCredentials = errors.New("認証に失敗しました")

var (
	// ErrNotFound は識別子に一致するアカウントが存在しないことを表す。
	ErrNotFound = fmt.Errorf("%w: アカウントが存在しません", ErrInvalidCredentials)
	// ErrInactive はアカウントが無効化されていることを表す。
	ErrInactive = fmt.Errorf("%w: アカウントが無効です", ErrInvalidCredentials)
	// ErrBadPassword はパスワードが一致しないことを表す。
	ErrBadPassword = fmt.Errorf("%w: パスワードが一致しません", ErrInvalidCredentials)
)

// Validator は識別子とパスワードの組を検証する。
type Validator struct {
	store AccountStore
}

// NewValidator は新しいValidatorを生成する。
func NewValidator(store AccountStore) *Validator {
	return &Validator{store: store}
}

// Validate は識別子を正規化してアカウントを検索し、状態とパスワードを検証する。
// 認証失敗の場合はErrInvalidCredentialsをラップしたエラーを返す。
// それ以外のエラー（ストア障害等）はそのまま返す。
func (v *Validator) Validate(ctx context.Context, identifier, password string) (*Account, error) {
	normalized := golpe.NormalizeName(identifier)
	if normalized == "" {
		return nil, ErrNotFound
	}

	account, err := v.store.FindByIdentifier(ctx, normalized)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !account.Active {
		return nil, ErrInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadPassword
	}
	return account, nil
}

// failureKind はログ出力用に認証失敗の種類を返す。
func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrBadPassword):
		return "bad_password"
	default:
		return "unknown"
	}
}
