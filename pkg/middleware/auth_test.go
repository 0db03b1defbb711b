package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// spyVerifier は呼び出し回数を記録するTokenVerifier。
type spyVerifier struct {
	userID string
	err    error
	calls  atomic.Int32
	token  atomic.Value
}

func (s *spyVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	s.calls.Add(1)
	s.token.Store(token)
	return s.userID, s.err
}

// newAuthRouter はTokenAuthで保護されたルートを持つルーターを生成する。
// 保護されたハンドラは受け取ったX-User-IDをボディとして返す。
func newAuthRouter(verifier TokenVerifier, handlerCalls *atomic.Int32) *gin.Engine {
	router := gin.New()
	router.Use(StripIdentity())
	router.GET("/apis/me", TokenAuth(verifier), func(c *gin.Context) {
		handlerCalls.Add(1)
		c.String(http.StatusOK, c.GetHeader(httpclient.HeaderUserID)+"|"+GetUserID(c))
	})
	router.GET("/accounts/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetHeader(httpclient.HeaderUserID))
	})
	return router
}

// TestTokenAuth はTokenAuthミドルウェアを検証する。
func TestTokenAuth(t *testing.T) {
	t.Parallel()

	t.Run("検証済みのユーザーIDでX-User-IDを上書きすること", func(t *testing.T) {
		t.Parallel()

		verifier := &spyVerifier{userID: "user-1"}
		var handlerCalls atomic.Int32
		req := httptest.NewRequest(http.MethodGet, "/apis/me", nil)
		req.Header.Set(HeaderAuthToken, "token-abc")
		req.Header.Set(httpclient.HeaderUserID, "impostor")
		w := httptest.NewRecorder()

		newAuthRouter(verifier, &handlerCalls).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1|user-1", w.Body.String())
		assert.Equal(t, "token-abc", verifier.token.Load())
		assert.Equal(t, int32(1), handlerCalls.Load())
	})

	t.Run("トークンが無い場合は検証もハンドラも呼ばずに401を返すこと", func(t *testing.T) {
		t.Parallel()

		verifier := &spyVerifier{userID: "user-1"}
		var handlerCalls atomic.Int32
		req := httptest.NewRequest(http.MethodGet, "/apis/me", nil)
		w := httptest.NewRecorder()

		newAuthRouter(verifier, &handlerCalls).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "auth token not exists", w.Body.String())
		assert.Equal(t, int32(0), verifier.calls.Load())
		assert.Equal(t, int32(0), handlerCalls.Load())
	})

	t.Run("ヘッダー値として不正なトークンは401を返すこと", func(t *testing.T) {
		t.Parallel()

		for _, token := range []string{"tok\x00en", "トークン", "tok\nen", "\x7f"} {
			verifier := &spyVerifier{userID: "user-1"}
			var handlerCalls atomic.Int32
			req := httptest.NewRequest(http.MethodGet, "/apis/me", nil)
			req.Header[HeaderAuthToken] = []string{token}
			w := httptest.NewRecorder()

			newAuthRouter(verifier, &handlerCalls).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code, "token=%q", token)
			assert.Equal(t, int32(0), verifier.calls.Load(), "token=%q", token)
			assert.Equal(t, int32(0), handlerCalls.Load(), "token=%q", token)
		}
	})

	t.Run("認証サービスの401をそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		verifier := &spyVerifier{err: apperror.BackendRejected(http.StatusUnauthorized, "token expired")}
		var handlerCalls atomic.Int32
		req := httptest.NewRequest(http.MethodGet, "/apis/me", nil)
		req.Header.Set(HeaderAuthToken, "expired")
		w := httptest.NewRecorder()

		newAuthRouter(verifier, &handlerCalls).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "token expired", w.Body.String())
		assert.Equal(t, int32(0), handlerCalls.Load())
	})

	t.Run("認証サービスに接続できない場合は500を返すこと", func(t *testing.T) {
		t.Parallel()

		verifier := &spyVerifier{err: apperror.NetworkFailure(errors.New("dial tcp: connection refused"))}
		var handlerCalls atomic.Int32
		req := httptest.NewRequest(http.MethodGet, "/apis/me", nil)
		req.Header.Set(HeaderAuthToken, "token")
		w := httptest.NewRecorder()

		newAuthRouter(verifier, &handlerCalls).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "network failure", w.Body.String())
		assert.Equal(t, int32(0), handlerCalls.Load())
	})

	t.Run("認証後のハンドラの結果に手を加えないこと", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.GET("/apis/dogs/:id", TokenAuth(&spyVerifier{userID: "u"}), func(c *gin.Context) {
			apperror.Respond(c, apperror.Forbidden("you are not the owner of the dog"))
		})
		req := httptest.NewRequest(http.MethodGet, "/apis/dogs/d1", nil)
		req.Header.Set(HeaderAuthToken, "token")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "you are not the owner of the dog", w.Body.String())
	})

	t.Run("後続のバックエンド呼び出しにユーザーIDを伝播すること", func(t *testing.T) {
		t.Parallel()

		received := make(chan string, 1)
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received <- r.Header.Get(httpclient.HeaderUserID)
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(backend.Close)
		client := httpclient.New(backend.URL)

		router := gin.New()
		router.GET("/apis/walk_requests/nearby", TokenAuth(&spyVerifier{userID: "user-1"}), func(c *gin.Context) {
			if err := client.GetJSON(c.Request.Context(), "/apis/walk_requests/nearby", nil, nil); err != nil {
				apperror.Respond(c, err)
				return
			}
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/apis/walk_requests/nearby", nil)
		req.Header.Set(HeaderAuthToken, "token")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", <-received)
	})
}

// TestStripIdentity はクライアントが送ったX-User-IDが取り除かれることを検証する。
func TestStripIdentity(t *testing.T) {
	t.Parallel()

	var handlerCalls atomic.Int32
	req := httptest.NewRequest(http.MethodGet, "/accounts/ping", nil)
	req.Header.Set(httpclient.HeaderUserID, "impostor")
	w := httptest.NewRecorder()

	newAuthRouter(&spyVerifier{}, &handlerCalls).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
