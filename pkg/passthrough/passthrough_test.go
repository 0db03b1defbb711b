package passthrough

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
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

// received はスタブバックエンドが受け取ったリクエストの内容。
type received struct {
	method        string
	path          string
	rawQuery      string
	requestURI    string
	header        http.Header
	body          string
	contentLength int64
}

// newBackend はリクエストを記録して固定のレスポンスを返すスタブバックエンドを生成する。
func newBackend(t *testing.T, status int, respBody string) (*httptest.Server, *received, *atomic.Int32) {
	t.Helper()

	got := &received{}
	calls := &atomic.Int32{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		*got = received{
			method:        r.Method,
			path:          r.URL.Path,
			rawQuery:      r.URL.RawQuery,
			requestURI:    r.RequestURI,
			header:        r.Header.Clone(),
			body:          string(b),
			contentLength: r.ContentLength,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(backend.Close)
	return backend, got, calls
}

// serve はハンドラをルーターに登録してリクエストを処理する。
func serve(h gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	router := gin.New()
	router.NoRoute(h)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestNew は転送ハンドラを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("クエリ文字列をそのまま転送すること", func(t *testing.T) {
		t.Parallel()

		backend, got, _ := newBackend(t, http.StatusOK, `{}`)
		w := serve(New(backend.URL), httptest.NewRequest(http.MethodGet, "/apis/dogs?a=1&b=2", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "a=1&b=2", got.rawQuery)
		assert.Equal(t, "/apis/dogs?a=1&b=2", got.requestURI)
		assert.Equal(t, "/apis/dogs", got.path)
	})

	t.Run("クエリ文字列が空なら?を付けないこと", func(t *testing.T) {
		t.Parallel()

		backend, got, _ := newBackend(t, http.StatusOK, `{}`)
		w := serve(New(backend.URL), httptest.NewRequest(http.MethodGet, "/apis/dogs", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/apis/dogs", got.requestURI)
	})

	t.Run("固定パスが設定されていればそのパスに転送すること", func(t *testing.T) {
		t.Parallel()

		backend, got, _ := newBackend(t, http.StatusOK, `{}`)
		w := serve(New(backend.URL, WithPath("/fixed")), httptest.NewRequest(http.MethodGet, "/anything?x=1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/fixed?x=1", got.requestURI)
	})

	t.Run("転送できないメソッドはバックエンドを呼ばずに405を返すこと", func(t *testing.T) {
		t.Parallel()

		backend, _, calls := newBackend(t, http.StatusOK, `{}`)
		w := serve(New(backend.URL), httptest.NewRequest("PROPFIND", "/apis/dogs", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("ヘッダーを転送しホップバイホップヘッダーは取り除くこと", func(t *testing.T) {
		t.Parallel()

		backend, got, _ := newBackend(t, http.StatusOK, `{}`)
		req := httptest.NewRequest(http.MethodGet, "/apis/dogs", nil)
		req.Header.Set("X-User-ID", "user-1")
		req.Header.Set("X-Custom", "value")
		req.Header.Set("Proxy-Authorization", "secret")

		serve(New(backend.URL), req)

		assert.Equal(t, "user-1", got.header.Get("X-User-ID"))
		assert.Equal(t, "value", got.header.Get("X-Custom"))
		assert.Empty(t, got.header.Get("Proxy-Authorization"))
	})

	t.Run("リクエストProcessorの結果を送りContent-Lengthを再計算すること", func(t *testing.T) {
		t.Parallel()

		backend, got, _ := newBackend(t, http.StatusOK, `{}`)
		upper := func(_ *http.Request, body []byte) ([]byte, error) {
			return []byte(strings.ToUpper(string(body)) + "!!"), nil
		}
		req := httptest.NewRequest(http.MethodPost, "/apis/dogs", strings.NewReader("pochi"))
		req.Header.Set("Content-Length", "5")

		w := serve(New(backend.URL, WithRequestProcessor(upper)), req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.MethodPost, got.method)
		assert.Equal(t, "POCHI!!", got.body)
		assert.Equal(t, int64(7), got.contentLength)
	})

	t.Run("リクエストProcessorのエラーを返しバックエンドを呼ばないこと", func(t *testing.T) {
		t.Parallel()

		backend, _, calls := newBackend(t, http.StatusOK, `{}`)
		reject := func(_ *http.Request, _ []byte) ([]byte, error) {
			return nil, apperror.InvalidRequest("bad body")
		}
		w := serve(New(backend.URL, WithRequestProcessor(reject)),
			httptest.NewRequest(http.MethodPost, "/apis/dogs", strings.NewReader("x")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad body", w.Body.String())
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("レスポンスProcessorの結果を200で返すこと", func(t *testing.T) {
		t.Parallel()

		backend, _, _ := newBackend(t, http.StatusOK, `{"id":"1"}`)
		wrap := func(_ *http.Request, body []byte) ([]byte, error) {
			return append(append([]byte(`{"data":`), body...), '}'), nil
		}
		w := serve(New(backend.URL, WithResponseProcessor(wrap)), httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"data":{"id":"1"}}`, w.Body.String())
	})

	t.Run("NormalizeStatusではバックエンドの失敗ステータスも200にすること", func(t *testing.T) {
		t.Parallel()

		backend, _, _ := newBackend(t, http.StatusNotFound, `{"error":"not found"}`)
		w := serve(New(backend.URL), httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
	})

	t.Run("RelayStatusではバックエンドのステータスをそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		backend, _, _ := newBackend(t, http.StatusCreated, `{"id":"1"}`)
		w := serve(New(backend.URL, WithStatusPolicy(RelayStatus)), httptest.NewRequest(http.MethodPost, "/x", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":"1"}`, w.Body.String())
	})

	t.Run("RelayStatusでは失敗時にレスポンスProcessorを実行しないこと", func(t *testing.T) {
		t.Parallel()

		backend, _, _ := newBackend(t, http.StatusConflict, "already accepted")
		var called atomic.Bool
		spy := func(_ *http.Request, body []byte) ([]byte, error) {
			called.Store(true)
			return body, nil
		}
		w := serve(New(backend.URL, WithStatusPolicy(RelayStatus), WithResponseProcessor(spy)),
			httptest.NewRequest(http.MethodPut, "/apis/walk_requests/w1/accepted_by", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "already accepted", w.Body.String())
		assert.False(t, called.Load())
	})

	t.Run("バックエンドに接続できなければ500を返すこと", func(t *testing.T) {
		t.Parallel()

		backend := httptest.NewServer(http.NotFoundHandler())
		addr := backend.URL
		backend.Close()

		w := serve(New(addr), httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "network failure", w.Body.String())
	})

	t.Run("複数のProcessorを指定した順に適用すること", func(t *testing.T) {
		t.Parallel()

		backend, got, _ := newBackend(t, http.StatusOK, `body`)
		suffix := func(s string) Processor {
			return func(_ *http.Request, body []byte) ([]byte, error) {
				return append(body, s...), nil
			}
		}
		w := serve(New(backend.URL,
			WithRequestProcessor(suffix("-a")), WithRequestProcessor(suffix("-b")),
			WithResponseProcessor(suffix("-c")), WithResponseProcessor(suffix("-d")),
		), httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("req")))

		assert.Equal(t, "req-a-b", got.body)
		assert.Equal(t, "body-c-d", w.Body.String())
	})

	t.Run("指定したHTTPクライアントでバックエンドを呼ぶこと", func(t *testing.T) {
		t.Parallel()

		backend, _, calls := newBackend(t, http.StatusOK, `{}`)
		var roundTrips atomic.Int32
		hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			roundTrips.Add(1)
			return http.DefaultTransport.RoundTrip(r)
		})}
		w := serve(New(backend.URL, WithClientOptions(httpclient.WithHTTPClient(hc))),
			httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int32(1), roundTrips.Load())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("レスポンスProcessorのエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		backend, _, _ := newBackend(t, http.StatusOK, `{}`)
		fail := func(_ *http.Request, _ []byte) ([]byte, error) {
			return nil, errors.New("broken")
		}
		w := serve(New(backend.URL, WithResponseProcessor(fail)), httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal error", w.Body.String())
	})
}

// roundTripFunc は関数をhttp.RoundTripperとして使う。
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// TestChain はProcessorの合成を検証する。
func TestChain(t *testing.T) {
	t.Parallel()

	appendTo := func(s string) Processor {
		return func(_ *http.Request, body []byte) ([]byte, error) {
			return append(body, s...), nil
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("順番に適用すること", func(t *testing.T) {
		t.Parallel()

		out, err := Chain(appendTo("a"), nil, appendTo("b"))(req, []byte(">"))
		require.NoError(t, err)
		assert.Equal(t, ">ab", string(out))
	})

	t.Run("エラー以降のProcessorを実行しないこと", func(t *testing.T) {
		t.Parallel()

		var called bool
		after := func(_ *http.Request, body []byte) ([]byte, error) {
			called = true
			return body, nil
		}
		fail := func(_ *http.Request, _ []byte) ([]byte, error) {
			return nil, apperror.Forbidden("no")
		}
		_, err := Chain(fail, after)(req, nil)
		assert.Equal(t, http.StatusForbidden, apperror.StatusCode(err))
		assert.False(t, called)
	})
}
