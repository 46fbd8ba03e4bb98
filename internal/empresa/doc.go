// Package empresa は企業（認証）サービスの内部実装を提供する。
//
// 企業アカウントの登録とログインを担当する。ログインに成功すると
// セッショントークンを発行し、詐欺報告サービスから自社名義の報告を取得して
// レスポンスに含める。詐欺報告サービスの障害はログインの成否に影響しない。
package empresa
