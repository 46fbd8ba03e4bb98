// Package golpes は詐欺報告サービスの内部実装を提供する。
//
// 詐欺報告（golpe）の登録・一覧・取得・削除を担当する。
// 企業サービスはログイン時に企業名で報告を検索するが、
// このサービスが停止していてもログイン自体は成功する。
package golpes
