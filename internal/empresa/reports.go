package empresa

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/pkg/golpe"
	"github.com/nao1215/golpeguard/pkg/httpclient"
)

// ReportSource は企業名に一致する詐欺報告を取得する。
type ReportSource interface {
	FindByCompanyName(ctx context.Context, normalizedID string) ([]golpe.Report, error)
}

// golpesClient は詐欺報告サービスのHTTPクライアント。
type golpesClient struct {
	client *httpclient.Client
}

// newGolpesClient は詐欺報告サービスのクライアントを生成する。
func newGolpesClient(baseURL string) *golpesClient {
	return &golpesClient{client: httpclient.New(baseURL, 0)}
}

// FindByCompanyName は GET /api/cadastrogolpes?empresa= を呼び出す。
func (g *golpesClient) FindByCompanyName(ctx context.Context, normalizedID string) ([]golpe.Report, error) {
	var reports []golpe.Report
	if err := g.client.GetJSON(ctx, "/api/cadastrogolpes?empresa="+url.QueryEscape(normalizedID), &reports); err != nil {
		return nil, fmt.Errorf("詐欺報告サービスの呼び出しに失敗: %w", err)
	}
	return reports, nil
}

// errNilReports はReportSourceがエラーなしでnilを返したことを表す。
var errNilReports = errors.New("詐欺報告サービスが結果を返しませんでした")

// Aggregator は詐欺報告をベストエフォートで取得する。
// 取得に失敗してもエラーを返さず、空のスライスを返す。
type Aggregator struct {
	source  ReportSource
	timeout time.Duration
	logger  *zap.Logger
}

// NewAggregator は新しいAggregatorを生成する。
// timeoutが0の場合は呼び出し元のコンテキスト以外に期限を設けない。
func NewAggregator(source ReportSource, timeout time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{source: source, timeout: timeout, logger: logger}
}

// FetchByOwner は企業名に一致する詐欺報告を返す。結果は常に非nil。
func (a *Aggregator) FetchByOwner(ctx context.Context, identifier string) []golpe.Report {
	reports, err := a.fetch(ctx, identifier)
	if err != nil {
		a.logger.Error("詐欺報告の取得に失敗",
			zap.String("identifier", identifier),
			zap.Error(err),
		)
		return []golpe.Report{}
	}
	return reports
}

// fetch はReportSourceを呼び出す。パニックはエラーに変換する。
func (a *Aggregator) fetch(ctx context.Context, identifier string) (reports []golpe.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			reports, err = nil, fmt.Errorf("詐欺報告の取得中にパニックが発生: %v", r)
		}
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	reports, err = a.source.FindByCompanyName(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		return nil, errNilReports
	}
	return reports, nil
}
