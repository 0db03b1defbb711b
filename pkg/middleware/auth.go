package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

const (
	// HeaderAuthToken はクライアントが認証トークンを送るヘッダーキー。
	HeaderAuthToken = "X-Auth-Token"
	// contextKeyUserID はGinコンテキストにユーザーIDを格納するためのキー。
	contextKeyUserID = "user_id"
)

// TokenVerifier は認証トークンをユーザーIDに解決する。
type TokenVerifier interface {
	// VerifyToken はトークンを検証してユーザーIDを返す。
	VerifyToken(ctx context.Context, token string) (string, error)
}

// TokenAuth は認証トークンを検証するGinミドルウェアを返す。
//
// X-Auth-Tokenが無い、または不正な値の場合はverifierを呼ばずに401を返す。
// 検証に失敗した場合はverifierが返したエラーをそのまま返す。
// 成功した場合はリクエストのX-User-IDヘッダーとコンテキストを検証済みのユーザーIDで上書きし、
// 後続のハンドラを実行する。後続のハンドラの結果には手を加えない。
func TokenAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderAuthToken)
		if !validHeaderValue(token) {
			apperror.Respond(c, apperror.Unauthorized("auth token not exists"))
			return
		}

		userID, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.Request.Header.Set(httpclient.HeaderUserID, userID)
		// 後続のバックエンド呼び出しにもユーザーIDを伝播する
		c.Request = c.Request.WithContext(httpclient.WithUserID(c.Request.Context(), userID))
		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

// StripIdentity はクライアントが送ったX-User-IDヘッダーを取り除くGinミドルウェアを返す。
// X-User-IDはTokenAuthだけが設定する。
func StripIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del(httpclient.HeaderUserID)
		c.Next()
	}
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// TokenAuthミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(contextKeyUserID)
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// validHeaderValue はトークンとして使えるヘッダー値かを返す。
// 空文字列と、表示可能なASCII文字・空白・タブ以外を含む値は不正とする。
func validHeaderValue(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		b := v[i]
		if b == '\t' {
			continue
		}
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
