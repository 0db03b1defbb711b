// Package upload はファイルアップロードサービスのクライアントを提供する。
package upload

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nao1215/littlewalk/internal/service"
	"github.com/nao1215/littlewalk/pkg/bytestream"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

var _ service.UploadClient = (*Client)(nil)

// HeaderSizeLimit はアップロードサイズの上限を伝えるヘッダーキー。
const HeaderSizeLimit = "X-Size-Limit"

// Client はファイルアップロードサービスのクライアント。
type Client struct {
	http *httpclient.Client
}

// New はaddressのアップロードサービスに接続するクライアントを生成する。
func New(address string, opts ...httpclient.Option) *Client {
	return &Client{http: httpclient.New(address, opts...)}
}

// Upload はボディをバッファリングせずにアップロードサービスへ送る。
func (c *Client) Upload(ctx context.Context, contentType, userID string, sizeLimit int64, body io.Reader) (*bytestream.Stream, error) {
	header := http.Header{}
	header.Set(httpclient.HeaderUserID, userID)
	header.Set("Content-Type", contentType)
	header.Set(HeaderSizeLimit, strconv.FormatInt(sizeLimit, 10))
	return c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/files",
		Header: header,
		Body:   body,
	})
}

// Download はファイルの内容をストリームとして返す。
func (c *Client) Download(ctx context.Context, id string) (*bytestream.Stream, error) {
	return c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/files/" + url.PathEscape(id),
	})
}
