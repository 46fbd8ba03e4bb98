package empresa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/golpeguard/pkg/config"
	"github.com/nao1215/golpeguard/pkg/database"
	"github.com/nao1215/golpeguard/pkg/golpe"
	"github.com/nao1215/golpeguard/pkg/httpclient"
	"github.com/nao1215/golpeguard/pkg/middleware"
	"github.com/nao1215/golpeguard/pkg/migration"
	"github.com/nao1215/golpeguard/pkg/token"
)

// InvalidCredentialsMessage は認証失敗時のエラーメッセージ。
// 失敗の種類によらず同一のレスポンスを返す。
const InvalidCredentialsMessage = "Credenciais inválidas"

// accountRepository はアカウントの検索と登録を行う。
type accountRepository interface {
	AccountStore
	Create(ctx context.Context, a *Account) error
}

// Server は企業（認証）サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// accounts は企業アカウントの永続化を行う。
	accounts accountRepository
	// tokens はセッショントークンの発行と検証を行う。
	tokens *token.Issuer
	// login はログイン処理を行う。
	login *LoginService
	// logger は構造化ロガー。
	logger *zap.Logger
	// bcryptCost はパスワードハッシュのコスト。
	bcryptCost int
	// closeDB はデータベース接続を閉じる。
	closeDB func() error
}

// NewServer は新しい企業サーバーを生成する。
// データベース接続とマイグレーションを行う。
func NewServer(ctx context.Context, cfg *config.Empresa, logger *zap.Logger) (*Server, error) {
	tokens, err := token.NewIssuer(token.Config{
		Secret: []byte(cfg.JWT.Secret),
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migration.Run(db, migrationsFS, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	s := newServer(cfg.Port, newSQLStore(db), tokens, newGolpesClient(cfg.GolpesURL), cfg.ReportTimeout, logger)
	s.closeDB = db.Close
	return s, nil
}

// newServer はルーティング設定済みのServerを生成する。
func newServer(
	port string,
	accounts accountRepository,
	tokens *token.Issuer,
	source ReportSource,
	reportTimeout time.Duration,
	logger *zap.Logger,
) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))

	s := &Server{
		router:     router,
		port:       port,
		accounts:   accounts,
		tokens:     tokens,
		login:      NewLoginService(NewValidator(accounts), tokens, NewAggregator(source, reportTimeout, logger)),
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
		closeDB:    func() error { return nil },
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
	auth := s.router.Group("/api/auth")
	{
		// ログイン
		auth.POST("/login", s.handleLogin())
		// トークン検証
		auth.GET("/validate", middleware.JWTAuth(s.tokens, s.logger), s.handleValidate())
	}

	// 企業アカウントの登録
	s.router.POST("/api/cadastroempresas", s.handleRegister())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "empresa"})
	})
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Usuario  string `json:"usuario"`
	Password string `json:"password"`
}

// handleLogin はログイン処理を行うハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		requestID := middleware.GetRequestID(c)
		ctx := httpclient.WithRequestID(c.Request.Context(), requestID)

		result, err := s.login.Login(ctx, req.Usuario, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Warn("ログインに失敗",
				zap.String("usuario", golpe.NormalizeName(req.Usuario)),
				zap.String("reason", failureKind(err)),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": InvalidCredentialsMessage})
			return
		}
		if err != nil {
			s.logger.Error("ログイン処理に失敗", zap.String("request_id", requestID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログイン処理に失敗しました"})
			return
		}

		s.logger.Info("ログイン成功",
			zap.String("usuario", result.Empresa),
			zap.Int("scam_reports", len(result.ScamReports)),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusOK, result)
	}
}

// handleValidate はトークン検証の結果を返すハンドラを返す。
// JWTAuthミドルウェアを通過した場合のみ呼び出される。
func (s *Server) handleValidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		empresaID, _ := middleware.GetEmpresaID(c)
		s.logger.Debug("トークン検証に成功",
			zap.String("usuario", middleware.GetSubject(c)),
			zap.Int64("empresa_id", empresaID),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		c.JSON(http.StatusOK, gin.H{"message": "Token válido"})
	}
}

// registerRequest は企業アカウント登録リクエストのJSON構造。
type registerRequest struct {
	Usuario  string `json:"usuario" binding:"required"`
	CNPJ     string `json:"cnpj"`
	Password string `json:"password" binding:"required"`
}

// registerResponse は企業アカウント登録のレスポンス。
type registerResponse struct {
	ID      int64  `json:"id"`
	Usuario string `json:"usuario"`
}

// handleRegister は企業アカウントの登録を処理するハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		usuario := golpe.NormalizeName(req.Usuario)
		if usuario == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "usuarioが空です"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			s.logger.Warn("パスワードのハッシュ化に失敗", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "パスワードが不正です"})
			return
		}

		account := Account{
			Usuario:      usuario,
			CNPJ:         req.CNPJ,
			PasswordHash: string(hash),
			Active:       true,
			Role:         RoleEmpresa,
		}
		err = s.accounts.Create(c.Request.Context(), &account)
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "企業アカウントは既に登録されています"})
			return
		}
		if err != nil {
			s.logger.Error("企業アカウントの登録に失敗", zap.String("usuario", usuario), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "企業アカウントの登録に失敗しました"})
			return
		}

		s.logger.Info("企業アカウントを登録", zap.Int64("id", account.ID), zap.String("usuario", usuario))
		c.JSON(http.StatusCreated, registerResponse{ID: account.ID, Usuario: account.Usuario})
	}
}
