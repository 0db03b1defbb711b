package passthrough

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/bytestream"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

// contentTypeJSON は正規化したレスポンスのContent-Type。
const contentTypeJSON = "application/json"

// StatusPolicy はバックエンドのレスポンスステータスの扱い方。
type StatusPolicy int

const (
	// NormalizeStatus はバックエンドのステータスにかかわらず、変換後のボディを200で返す。
	NormalizeStatus StatusPolicy = iota
	// RelayStatus はバックエンドのステータスをそのまま返す。
	// 2xx以外の場合はレスポンスProcessorを実行せず、ボディを原因とするエラーとして返す。
	RelayStatus
)

// allowedMethods は転送できるHTTPメソッド。
var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodDelete:  {},
	http.MethodHead:    {},
	http.MethodPatch:   {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// hopByHopHeaders は転送してはならないホップバイホップヘッダー。
var hopByHopHeaders = []string{
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

// config はハンドラの設定。
type config struct {
	// path は固定の転送先パス。空の場合は受信したパスを使う。
	path string
	// requestProcessor はリクエストボディの変換。
	requestProcessor Processor
	// responseProcessor はレスポンスボディの変換。
	responseProcessor Processor
	// statusPolicy はレスポンスステータスの扱い。
	statusPolicy StatusPolicy
	// logger はロガー。
	logger *zap.Logger
	// clientOptions はバックエンド呼び出し用クライアントのオプション。
	clientOptions []httpclient.Option
}

// Option はハンドラの設定を変更する関数。
type Option func(*config)

// WithPath は転送先のパスを固定する。
func WithPath(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

// WithRequestProcessor はリクエストボディの変換を追加する。
// 複数回指定した場合は指定した順に適用する。
func WithRequestProcessor(p Processor) Option {
	return func(c *config) {
		c.requestProcessor = Chain(c.requestProcessor, p)
	}
}

// WithResponseProcessor はレスポンスボディの変換を追加する。
// 複数回指定した場合は指定した順に適用する。
func WithResponseProcessor(p Processor) Option {
	return func(c *config) {
		c.responseProcessor = Chain(c.responseProcessor, p)
	}
}

// WithStatusPolicy はレスポンスステータスの扱いを設定する。
func WithStatusPolicy(policy StatusPolicy) Option {
	return func(c *config) {
		c.statusPolicy = policy
	}
}

// WithLogger はロガーを設定する。
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClientOptions はバックエンド呼び出し用クライアントのオプションを設定する。
func WithClientOptions(opts ...httpclient.Option) Option {
	return func(c *config) {
		c.clientOptions = append(c.clientOptions, opts...)
	}
}

// New はbackendAddressのサービスへリクエストを転送するハンドラを返す。
// 1回の呼び出しにつきバックエンドへの送信は1回だけで、再試行はしない。
func New(backendAddress string, opts ...Option) gin.HandlerFunc {
	cfg := &config{
		requestProcessor:  NoOp,
		responseProcessor: NoOp,
		statusPolicy:      NormalizeStatus,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client := httpclient.New(backendAddress, cfg.clientOptions...)

	return func(c *gin.Context) {
		if err := forward(c, client, cfg); err != nil {
			apperror.Respond(c, err)
		}
	}
}

// forward はリクエストを転送してレスポンスを書き込む。
func forward(c *gin.Context, client *httpclient.Client, cfg *config) error {
	in := c.Request
	if _, ok := allowedMethods[in.Method]; !ok {
		return apperror.MethodNotAllowed(in.Method)
	}

	body, err := readBody(in.Body)
	if err != nil {
		return err
	}
	if body, err = cfg.requestProcessor(in, body); err != nil {
		return err
	}

	path := cfg.path
	if path == "" {
		path = in.URL.EscapedPath()
	}
	out := httpclient.Request{
		Method:   in.Method,
		Path:     path,
		RawQuery: in.URL.RawQuery,
		Header:   outboundHeader(in.Header),
	}
	if len(body) > 0 {
		out.Body = bytes.NewReader(body)
		out.ContentLength = int64(len(body))
	}

	resp, err := client.Send(in.Context(), out)
	if err != nil {
		cfg.logger.Warn("バックエンドへの転送に失敗",
			zap.String("method", in.Method),
			zap.String("url", client.URL(path, in.URL.RawQuery)),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	respBody, err := bytestream.ToBytes(bytestream.New(resp.Body))
	if err != nil {
		return err
	}

	switch cfg.statusPolicy {
	case RelayStatus:
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return apperror.BackendRejected(resp.StatusCode, string(respBody))
		}
		if respBody, err = cfg.responseProcessor(in, respBody); err != nil {
			return err
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = contentTypeJSON
		}
		c.Data(resp.StatusCode, contentType, respBody)
	default:
		if respBody, err = cfg.responseProcessor(in, respBody); err != nil {
			return err
		}
		c.Data(http.StatusOK, contentTypeJSON, respBody)
	}
	return nil
}

// readBody は受信したボディをすべて読み込む。
func readBody(body io.ReadCloser) ([]byte, error) {
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	b, err := bytestream.ToBytes(bytestream.New(body))
	if err != nil {
		return nil, apperror.From(err)
	}
	return b, nil
}

// outboundHeader は受信したヘッダーから転送用のヘッダーを作る。
// Content-Lengthは変換後のボディから再計算するため取り除く。
// Accept-Encodingを取り除き、圧縮の扱いはクライアントに任せる。
func outboundHeader(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		out = http.Header{}
	}
	for _, k := range hopByHopHeaders {
		out.Del(k)
	}
	out.Del("Content-Length")
	out.Del("Accept-Encoding")
	return out
}
