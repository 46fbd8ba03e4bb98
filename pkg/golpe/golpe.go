// Package golpe は詐欺報告（golpe）レコードの共通定義を提供する。
//
// 詐欺報告サービスと企業サービスの間でやり取りされるJSON構造と、
// 企業名（ログイン識別子）の正規化ルールを両サービスで共有する。
package golpe

import (
	"strings"
	"time"
)

// Report は詐欺報告レコード。
// 企業との関連付けは EmpresaID ではなく CompanyName の文字列一致で行う。
// これにより企業の登録前に報告されたレコードも取得できる。
type Report struct {
	// ID は報告の一意識別子。
	ID int64 `json:"id"`
	// CompanyName はなりすましの対象となった企業名（正規化済み）。
	CompanyName string `json:"nomeEmpresa"`
	// Location は被害が発生した地域。
	Location string `json:"local"`
	// ContactChannel は詐欺師が使用した連絡手段（電話、WhatsApp、メール等）。
	ContactChannel string `json:"meioContato"`
	// Description は手口の説明。
	Description string `json:"descricao"`
	// ScammerContact は詐欺師の連絡先。
	ScammerContact string `json:"contatoGolpista"`
	// EmpresaID は報告を登録した企業アカウントのID。匿名報告の場合はnil。
	EmpresaID *int64 `json:"empresaId,omitempty"`
	// CreatedAt は登録日時。
	CreatedAt time.Time `json:"criadoEm"`
}

// NormalizeName はログイン識別子・企業名を正規化する。
// 前後の空白を除去し、大文字に変換する。
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
