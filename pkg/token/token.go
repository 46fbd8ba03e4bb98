// Package token はセッショントークン（HS256 JWT）の発行と検証を行う。
//
// トークンはステートレスであり、サーバー側にセッションを保持しない。
// 有効性は署名と有効期限のみで判定し、アカウントの現在の状態は参照しない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はConfig.TTLが未指定の場合のトークン有効期間。
const DefaultTTL = time.Hour

// registeredClaims は呼び出し側のクレームで上書きできない予約済みクレーム。
var registeredClaims = map[string]struct{}{
	"sub": {}, "iat": {}, "exp": {}, "iss": {}, "nbf": {}, "aud": {}, "jti": {},
}

// Config はトークン発行者の設定。起動時に一度だけ構築する。
type Config struct {
	// Secret はHS256署名に使用する共有鍵。
	Secret []byte
	// TTL は発行から失効までの期間。
	TTL time.Duration
	// Issuer はissクレームに設定する発行者名。空の場合は検証しない。
	Issuer string
	// Now は現在時刻を返す関数。nilの場合はtime.Now。
	Now func() time.Time
}

// Failure は検証失敗の種類。ログ出力用であり、呼び出し側の判定には使用しない。
type Failure int

const (
	// FailureNone は検証に成功したことを表す。
	FailureNone Failure = iota
	// FailureMalformed はトークンの形式が不正であることを表す。
	FailureMalformed
	// FailureExpired はトークンの有効期限が切れていることを表す。
	FailureExpired
	// FailureBadSignature は署名または署名アルゴリズムが不正であることを表す。
	FailureBadSignature
)

// String はFailureの文字列表現を返す。
func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMalformed:
		return "malformed"
	case FailureExpired:
		return "expired"
	case FailureBadSignature:
		return "bad_signature"
	default:
		return fmt.Sprintf("Failure(%d)", int(f))
	}
}

// Verification はトークン検証の結果。
type Verification struct {
	// Valid は署名と有効期限の両方が正しい場合にtrue。
	Valid bool
	// Subject はsubクレーム（正規化済みの企業識別子）。
	Subject string
	// Claims はトークンに含まれる全クレーム。数値はfloat64になる。
	Claims map[string]any
	// Failure は検証に失敗した理由。
	Failure Failure
}

// Issuer はセッショントークンの発行と検証を行う。
// 生成後は不変であり、複数のgoroutineから同時に使用できる。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer は新しいIssuerを生成する。
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("トークン署名鍵が空です")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < 0 {
		return nil, fmt.Errorf("トークンの有効期間が不正です: %s", ttl)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Issuer{
		secret: secret,
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    now,
	}, nil
}

// TTL はトークンの有効期間を返す。
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue はsubjectと追加クレームを含む署名済みトークンを発行する。
// claimsに予約済みクレーム（sub, exp等）が含まれていても無視する。
func (i *Issuer) Issue(subject string, claims map[string]any) (string, error) {
	if subject == "" {
		return "", errors.New("subjectが空です")
	}

	mc := jwt.MapClaims{}
	for k, v := range claims {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		mc[k] = v
	}

	issuedAt := i.now()
	mc["sub"] = subject
	mc["iat"] = jwt.NewNumericDate(issuedAt)
	mc["exp"] = jwt.NewNumericDate(issuedAt.Add(i.ttl))
	if i.issuer != "" {
		mc["iss"] = i.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証する。
// 不正な入力に対してもエラーやパニックは返さず、Valid=falseの結果を返す。
func (i *Issuer) Verify(tokenString string) (v Verification) {
	defer func() {
		if r := recover(); r != nil {
			v = Verification{Failure: FailureMalformed}
		}
	}()

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	mc := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, mc, func(_ *jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return Verification{Failure: classify(err)}
	}
	if !tok.Valid {
		return Verification{Failure: FailureMalformed}
	}

	subject, err := mc.GetSubject()
	if err != nil || subject == "" {
		return Verification{Failure: FailureMalformed}
	}

	return Verification{
		Valid:   true,
		Subject: subject,
		Claims:  map[string]any(mc),
	}
}

// classify はjwtライブラリのエラーを検証失敗の種類に変換する。
func classify(err error) Failure {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return FailureExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return FailureBadSignature
	default:
		return FailureMalformed
	}
}
