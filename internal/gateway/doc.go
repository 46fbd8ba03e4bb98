// Package gateway はAPI Gatewayサービスの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、パスのプレフィックスに
// 従ってリクエストを企業サービスまたは詐欺報告サービスに転送する。
// リクエストとレスポンスは加工せずにそのまま中継する。
package gateway
