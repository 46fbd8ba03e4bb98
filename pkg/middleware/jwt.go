package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/pkg/token"
)

// InvalidTokenMessage はトークン検証に失敗した場合のエラーメッセージ。
// 失敗理由（期限切れ、署名不正等）は呼び出し側に区別して返さない。
const InvalidTokenMessage = "Token inválido"

// TokenVerifier はセッショントークンを検証する。
type TokenVerifier interface {
	Verify(tokenString string) token.Verification
}

const (
	contextKeySubject = "subject"
	contextKeyClaims  = "claims"
)

// JWTAuth はBearerトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "subject" と "claims" を設定する。
// ヘッダー欠落・形式不正・トークン不正はすべて同じ401レスポンスになる。
func JWTAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			logger.Debug("Bearerトークンがありません", zap.String("request_id", GetRequestID(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": InvalidTokenMessage})
			return
		}

		v := verifier.Verify(strings.TrimSpace(tokenString))
		if !v.Valid {
			logger.Debug("トークン検証に失敗",
				zap.Stringer("reason", v.Failure),
				zap.String("request_id", GetRequestID(c)),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": InvalidTokenMessage})
			return
		}

		c.Set(contextKeySubject, v.Subject)
		c.Set(contextKeyClaims, v.Claims)
		c.Next()
	}
}

// GetSubject はGinコンテキストから認証済みの企業識別子を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetSubject(c *gin.Context) string {
	return c.GetString(contextKeySubject)
}

// GetEmpresaID はトークンのempresaIdクレームを取得する。
// JSONの数値はfloat64としてデコードされるため整数に変換する。
func GetEmpresaID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return 0, false
	}
	claims, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	id, ok := claims["empresaId"].(float64)
	if !ok {
		return 0, false
	}
	return int64(id), true
}
