package gateway

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/pkg/config"
	"github.com/nao1215/golpeguard/pkg/httpclient"
	"github.com/nao1215/golpeguard/pkg/middleware"
)

// hopHeaders は転送しないホップバイホップヘッダー。
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Server はAPI GatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// routes はプレフィックスと転送先のルーティング表。
	routes *RouteTable
	// client は内部サービスへの転送に使用するHTTPクライアント。
	client *http.Client
	// logger は構造化ロガー。
	logger *zap.Logger
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(cfg *config.Gateway, logger *zap.Logger) (*Server, error) {
	routes, err := NewRouteTable(cfg.Routes)
	if err != nil {
		return nil, err
	}
	for _, r := range routes.Routes() {
		logger.Info("ルーティング規則を登録", zap.String("prefix", r.Prefix), zap.String("target", r.Target.String()))
	}
	return newServer(cfg.Port, routes, []string{cfg.FrontendURL}, logger), nil
}

// newServer はルーティング設定済みのServerを生成する。
func newServer(port string, routes *RouteTable, allowedOrigins []string, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(allowedOrigins))

	s := &Server{
		router: router,
		port:   port,
		routes: routes,
		client: &http.Client{
			Timeout: httpclient.DefaultTimeout,
			// リダイレクトは追跡せずにそのまま呼び出し元へ返す
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr はリッスンアドレスを返す。
func (s *Server) Addr() string {
	return ":" + s.port
}

// setupRoutes はルーティングを設定する。
// ヘルスチェック以外のリクエストはすべてルーティング表に従って転送する。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	s.router.NoRoute(s.handleProxy())
}

// handleProxy はルーティング表に従ってリクエストを転送するハンドラを返す。
func (s *Server) handleProxy() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, ok := s.routes.Match(c.Request.URL.Path)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "ルートが見つかりません"})
			return
		}

		proxyURL := route.Target.String() + c.Request.URL.EscapedPath()
		if c.Request.URL.RawQuery != "" {
			proxyURL += "?" + c.Request.URL.RawQuery
		}
		s.doProxy(c, proxyURL)
	}
}

// doProxy はリクエストを内部サービスにプロキシする共通処理。
// メソッド・ヘッダー・ボディを加工せずに転送し、レスポンスをそのまま返す。
func (s *Server) doProxy(c *gin.Context, url string) {
	var body io.Reader = http.NoBody
	if c.Request.ContentLength != 0 {
		body = c.Request.Body
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, url, body)
	if err != nil {
		s.logger.Error("プロキシリクエストの作成に失敗", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "プロキシリクエストの作成に失敗しました"})
		return
	}
	req.ContentLength = c.Request.ContentLength
	req.Header = c.Request.Header.Clone()
	removeHopHeaders(req.Header)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("内部サービスとの通信に失敗",
			zap.String("url", url),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "内部サービスとの通信に失敗しました"})
		return
	}
	defer resp.Body.Close()

	removeHopHeaders(resp.Header)
	dst := c.Writer.Header()
	for k, values := range resp.Header {
		dst.Del(k)
		for _, v := range values {
			dst.Add(k, v)
		}
	}
	c.Status(resp.StatusCode)
	// ボディが空でもステータスを確定させる
	c.Writer.WriteHeaderNow()
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		s.logger.Warn("レスポンスの転送に失敗", zap.String("url", url), zap.Error(err))
	}
}

// removeHopHeaders はホップバイホップヘッダーを削除する。
func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}
