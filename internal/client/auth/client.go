// Package auth はアカウント・認証サービスのクライアントを提供する。
package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nao1215/littlewalk/internal/service"
	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/bytestream"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

var _ service.AuthClient = (*Client)(nil)

// Client はアカウント・認証サービスのクライアント。
type Client struct {
	http *httpclient.Client
}

// New はaddressの認証サービスに接続するクライアントを生成する。
func New(address string, opts ...httpclient.Option) *Client {
	return &Client{http: httpclient.New(address, opts...)}
}

// credentials はサインアップとログインのリクエストボディ。
type credentials struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// verifyTokenResponse はトークン検証のレスポンス。
type verifyTokenResponse struct {
	ID *string `json:"id"`
}

// existsUserResponse はユーザー存在確認のレスポンス。
type existsUserResponse struct {
	Exists bool `json:"exists"`
}

// SignUp はアカウントを作成する。
func (c *Client) SignUp(ctx context.Context, phone, password string) (*bytestream.Stream, error) {
	return c.send(ctx, http.MethodPost, "/signup", credentials{Phone: phone, Password: password})
}

// Login は電話番号とパスワードでログインする。
func (c *Client) Login(ctx context.Context, phone, password string) (*bytestream.Stream, error) {
	return c.send(ctx, http.MethodPut, "/login", credentials{Phone: phone, Password: password})
}

// VerifyToken はトークンを検証してユーザーIDを返す。
// 認証サービスがIDを返さなかった場合は401とする。
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	var resp verifyTokenResponse
	if err := c.http.GetJSON(ctx, "/tokens/"+url.PathEscape(token)+"/verification", nil, &resp); err != nil {
		return "", err
	}
	if resp.ID == nil || *resp.ID == "" {
		return "", apperror.Unauthorized("invalid token")
	}
	return *resp.ID, nil
}

// ExistsUser は電話番号のユーザーが存在するかを返す。
func (c *Client) ExistsUser(ctx context.Context, phone string) (bool, error) {
	var resp existsUserResponse
	if err := c.http.GetJSON(ctx, "/phones/"+url.PathEscape(phone)+"/exists", nil, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// GenerateToken は電話番号のユーザーのトークンを発行する。
func (c *Client) GenerateToken(ctx context.Context, phone string) (*bytestream.Stream, error) {
	return c.send(ctx, http.MethodPut, "/phones/"+url.PathEscape(phone)+"/tokens", nil)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*bytestream.Stream, error) {
	req, err := httpclient.JSONRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return c.http.Do(ctx, req)
}
