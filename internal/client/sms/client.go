// Package sms はSMS認証コードサービスのクライアントを提供する。
package sms

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nao1215/littlewalk/internal/service"
	"github.com/nao1215/littlewalk/pkg/bytestream"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

var _ service.SMSVerificationCodeClient = (*Client)(nil)

// Client はSMS認証コードサービスのクライアント。
type Client struct {
	http *httpclient.Client
}

// New はaddressのSMS認証コードサービスに接続するクライアントを生成する。
func New(address string, opts ...httpclient.Option) *Client {
	return &Client{http: httpclient.New(address, opts...)}
}

// verifyCodeResponse は認証コード検証のレスポンス。
type verifyCodeResponse struct {
	IsOK bool `json:"is_ok"`
}

// SendCode は電話番号に認証コードを送信する。
func (c *Client) SendCode(ctx context.Context, phone string) (*bytestream.Stream, error) {
	return c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPut,
		Path:   "/phones/" + url.PathEscape(phone) + "/codes",
	})
}

// VerifyCode は認証コードが正しいかを返す。
func (c *Client) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	var resp verifyCodeResponse
	path := "/phones/" + url.PathEscape(phone) + "/codes/" + url.PathEscape(code) + "/verification"
	if err := c.http.PutJSON(ctx, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.IsOK, nil
}
