package golpes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/pkg/config"
	"github.com/nao1215/golpeguard/pkg/database"
	"github.com/nao1215/golpeguard/pkg/golpe"
	"github.com/nao1215/golpeguard/pkg/middleware"
	"github.com/nao1215/golpeguard/pkg/migration"
)

// Server は詐欺報告サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store は詐欺報告の永続化を行う。
	store *Store
	// logger は構造化ロガー。
	logger *zap.Logger
	// closeDB はデータベース接続を閉じる。
	closeDB func() error
}

// NewServer は新しい詐欺報告サーバーを生成する。
// データベース接続とマイグレーションを行う。
func NewServer(ctx context.Context, cfg *config.Golpes, logger *zap.Logger) (*Server, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migration.Run(db, migrationsFS, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	s := newServer(cfg.Port, NewStore(db), logger)
	s.closeDB = db.Close
	return s, nil
}

// newServer はルーティング設定済みのServerを生成する。
func newServer(port string, store *Store, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))

	s := &Server{
		router:  router,
		port:    port,
		store:   store,
		logger:  logger,
		closeDB: func() error { return nil },
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

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.closeDB()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	golpes := s.router.Group("/api/cadastrogolpes")
	{
		// 詐欺報告の登録
		golpes.POST("", s.handleCreate())
		// 一覧取得（?empresa= で企業名検索）
		golpes.GET("", s.handleList())
		// 詳細取得
		golpes.GET("/:id", s.handleGetByID())
		// 削除
		golpes.DELETE("/:id", s.handleDelete())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "golpes"})
	})
}

// createGolpeRequest は詐欺報告登録リクエストのJSON構造。
type createGolpeRequest struct {
	// NomeEmpresa はなりすましの対象となった企業名。
	NomeEmpresa string `json:"nomeEmpresa" binding:"required"`
	// Local は被害が発生した地域。
	Local string `json:"local"`
	// MeioContato は詐欺師が使用した連絡手段。
	MeioContato string `json:"meioContato" binding:"required"`
	// Descricao は手口の説明。
	Descricao string `json:"descricao" binding:"required"`
	// ContatoGolpista は詐欺師の連絡先。
	ContatoGolpista string `json:"contatoGolpista"`
	// EmpresaID は報告を登録した企業アカウントのID。
	EmpresaID *int64 `json:"empresaId"`
}

// handleCreate は詐欺報告の登録を処理するハンドラを返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGolpeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		if golpe.NormalizeName(req.NomeEmpresa) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nomeEmpresaが空です"})
			return
		}

		report := golpe.Report{
			CompanyName:    req.NomeEmpresa,
			Location:       req.Local,
			ContactChannel: req.MeioContato,
			Description:    req.Descricao,
			ScammerContact: req.ContatoGolpista,
			EmpresaID:      req.EmpresaID,
		}
		if err := s.store.Create(c.Request.Context(), &report); err != nil {
			s.logger.Error("詐欺報告の登録に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "詐欺報告の登録に失敗しました"})
			return
		}

		c.JSON(http.StatusCreated, report)
	}
}

// handleList は詐欺報告の一覧を返すハンドラを返す。
// empresaクエリパラメータが指定された場合は企業名で絞り込む。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			reports []golpe.Report
			err     error
		)
		if name, ok := c.GetQuery("empresa"); ok {
			reports, err = s.store.FindByCompanyName(c.Request.Context(), name)
		} else {
			reports, err = s.store.List(c.Request.Context())
		}
		if err != nil {
			s.logger.Error("詐欺報告の取得に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "詐欺報告の取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, reports)
	}
}

// handleGetByID は詐欺報告の詳細を返すハンドラを返す。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		report, err := s.store.Get(c.Request.Context(), id)
		if errors.Is(err, ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "詐欺報告が見つかりません"})
			return
		}
		if err != nil {
			s.logger.Error("詐欺報告の取得に失敗", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "詐欺報告の取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// handleDelete は詐欺報告を削除するハンドラを返す。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		err := s.store.Delete(c.Request.Context(), id)
		if errors.Is(err, ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "詐欺報告が見つかりません"})
			return
		}
		if err != nil {
			s.logger.Error("詐欺報告の削除に失敗", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "詐欺報告の削除に失敗しました"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// parseID はパスパラメータのIDを解析する。不正な場合は400を書き込みfalseを返す。
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return 0, false
	}
	return id, true
}
