// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// 企業サービスが詐欺報告サービスのAPIを呼び出す際に使用する。
// リクエストIDの伝播とエラーレスポンスの扱いをサービス間で統一する。
package httpclient
