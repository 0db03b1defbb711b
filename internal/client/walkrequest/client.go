// Package walkrequest は散歩リクエストサービスのクライアントを提供する。
package walkrequest

import (
	"context"

	"github.com/nao1215/littlewalk/internal/entity"
	"github.com/nao1215/littlewalk/internal/service"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

var _ service.WalkRequestClient = (*Client)(nil)

// Client は散歩リクエストサービスのクライアント。
type Client struct {
	http *httpclient.Client
}

// New はaddressの散歩リクエストサービスに接続するクライアントを生成する。
func New(address string, opts ...httpclient.Option) *Client {
	return &Client{http: httpclient.New(address, opts...)}
}

// QueryWalkRequests は条件に一致する散歩リクエストを返す。
func (c *Client) QueryWalkRequests(ctx context.Context, query entity.WalkRequestQuery) ([]entity.UpstreamWalkRequest, error) {
	var requests []entity.UpstreamWalkRequest
	if err := c.http.GetJSON(ctx, "/apis/walk_requests/nearby", query.Values(), &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
