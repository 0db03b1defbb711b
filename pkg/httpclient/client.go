package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/bytestream"
)

// DefaultTimeout はバックエンド呼び出し1回あたりのタイムアウト。
const DefaultTimeout = 10 * time.Second

// HeaderUserID はゲートウェイが付与する認証済みユーザーIDのヘッダーキー。
const HeaderUserID = "X-User-ID"

// Client はバックエンドサービス呼び出し用のHTTPクライアント。
// 状態を持たず、複数のgoroutineから同時に使用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New は新しいバックエンド呼び出し用HTTPクライアントを生成する。
// baseURLには "dog:8080" のようなホストとポート、または "http://dog:8080" のようなURLを指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL: NormalizeBaseURL(baseURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBaseURL はスキームのないアドレスに "http://" を補い、末尾のスラッシュを取り除く。
func NormalizeBaseURL(address string) string {
	address = strings.TrimSpace(address)
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return strings.TrimRight(address, "/")
}

// Request はバックエンドへのリクエスト内容。
type Request struct {
	// Method はHTTPメソッド。
	Method string
	// Path はベースURLからのパス。
	Path string
	// Query はクエリパラメータ。空の場合は "?" を付与しない。
	Query url.Values
	// RawQuery はエンコード済みのクエリ文字列。Queryより優先される。
	RawQuery string
	// Header は送信するヘッダー。
	Header http.Header
	// Body はリクエストボディ。
	Body io.Reader
	// ContentLength はボディの長さ。不明な場合は-1。
	ContentLength int64
}

// URL はリクエスト先のURLを組み立てる。
func (c *Client) URL(path, rawQuery string) string {
	u := c.baseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// Send はリクエストを送信してレスポンスをそのまま返す。
// 送信に失敗した場合（DNS、接続、タイムアウト）のみapperror.NetworkFailureを返す。
// ステータスコードの解釈は呼び出し元が行う。
func (c *Client) Send(ctx context.Context, r Request) (*http.Response, error) {
	rawQuery := r.RawQuery
	if rawQuery == "" && len(r.Query) > 0 {
		rawQuery = r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.URL(r.Path, rawQuery), r.Body)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("HTTPリクエストの作成に失敗: %w", err))
	}
	if r.Header != nil {
		req.Header = r.Header.Clone()
	}
	if r.Body != nil && r.ContentLength != 0 {
		req.ContentLength = r.ContentLength
	}

	// コンテキストからユーザーIDを伝播する
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		req.Header.Set(HeaderUserID, userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.NetworkFailure(err)
	}
	return resp, nil
}

// Do はリクエストを送信し、成功時はレスポンスボディをストリームとして返す。
// 2xx以外のステータスの場合はボディの内容を原因とするapperror.BackendRejectedを返す。
func (c *Client) Do(ctx context.Context, r Request) (*bytestream.Stream, error) {
	resp, err := c.Send(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(resp); err != nil {
		return nil, err
	}
	return bytestream.New(resp.Body).WithContentType(resp.Header.Get("Content-Type")), nil
}

// CheckStatus はレスポンスが成功でなければボディを読み取ってエラーに変換する。
// エラーを返した場合、レスポンスボディは閉じられている。
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, err := bytestream.ToBytes(bytestream.New(resp.Body))
	if err != nil {
		return err
	}
	return apperror.BackendRejected(resp.StatusCode, string(body))
}

// GetJSON は指定パスにGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, result)
}

// PutJSON は指定パスにJSONボディでPUTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PutJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, result)
}

// JSONRequest はJSONボディを持つRequestを組み立てる。bodyがnilの場合はボディなし。
func JSONRequest(method, path string, body any) (Request, error) {
	r := Request{Method: method, Path: path, Header: http.Header{}}
	if body == nil {
		return r, nil
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Request{}, apperror.Internal(fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err))
	}
	r.Body = bytes.NewReader(jsonBody)
	r.ContentLength = int64(len(jsonBody))
	r.Header.Set("Content-Type", "application/json")
	return r, nil
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, result any) error {
	req, err := JSONRequest(method, path, body)
	if err != nil {
		return err
	}
	req.Query = query

	stream, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	b, err := bytestream.ToBytes(stream)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(b, result); err != nil {
			return apperror.Internal(fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err))
		}
	}
	return nil
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyUserID はコンテキストにユーザーIDを格納するためのキー。
const contextKeyUserID contextKey = "user_id"

// WithUserID はコンテキストにユーザーIDを設定する。
// バックエンド呼び出し時にX-User-IDヘッダーとして伝播される。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
