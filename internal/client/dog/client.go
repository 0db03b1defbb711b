// Package dog は犬サービスのクライアントを提供する。
package dog

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/nao1215/littlewalk/internal/entity"
	"github.com/nao1215/littlewalk/internal/service"
	"github.com/nao1215/littlewalk/pkg/bytestream"
	"github.com/nao1215/littlewalk/pkg/httpclient"
)

var _ service.DogClient = (*Client)(nil)

// Client は犬サービスのクライアント。
type Client struct {
	http *httpclient.Client
}

// New はaddressの犬サービスに接続するクライアントを生成する。
func New(address string, opts ...httpclient.Option) *Client {
	return &Client{http: httpclient.New(address, opts...)}
}

// isOwnerResponse は飼い主確認のレスポンス。
type isOwnerResponse struct {
	IsOwner bool `json:"is_owner"`
}

// portraitUpdate はポートレート更新のリクエストボディ。
type portraitUpdate struct {
	PortraitID string `json:"portrait_id"`
}

// QueryDogs は条件に一致する犬を返す。
func (c *Client) QueryDogs(ctx context.Context, query entity.DogQuery) ([]entity.Dog, error) {
	var dogs []entity.Dog
	if err := c.http.GetJSON(ctx, "/apis/dogs", query.Values(), &dogs); err != nil {
		return nil, err
	}
	return dogs, nil
}

// IsOwnerOfTheDog はownerIDのユーザーがdogIDの犬の飼い主かを返す。
func (c *Client) IsOwnerOfTheDog(ctx context.Context, ownerID, dogID string) (bool, error) {
	var resp isOwnerResponse
	query := entity.DogQuery{ID: dogID, OwnerID: ownerID}.Values()
	if err := c.http.GetJSON(ctx, "/dogs/exists", query, &resp); err != nil {
		return false, err
	}
	return resp.IsOwner, nil
}

// UpdateDog は犬の情報を更新する。
func (c *Client) UpdateDog(ctx context.Context, dogID string, body []byte) (*bytestream.Stream, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return c.http.Do(ctx, httpclient.Request{
		Method:        http.MethodPut,
		Path:          "/dogs/" + url.PathEscape(dogID),
		Header:        header,
		Body:          bytes.NewReader(body),
		ContentLength: int64(len(body)),
	})
}

// UpdateDogPortrait は犬のポートレート画像を更新する。
func (c *Client) UpdateDogPortrait(ctx context.Context, dogID, portraitID string) (*bytestream.Stream, error) {
	req, err := httpclient.JSONRequest(http.MethodPut, "/dogs/"+url.PathEscape(dogID)+"/portrait",
		portraitUpdate{PortraitID: portraitID})
	if err != nil {
		return nil, err
	}
	return c.http.Do(ctx, req)
}

// QueryBreeds はカテゴリに属する犬種を返す。
func (c *Client) QueryBreeds(ctx context.Context, category string) (*bytestream.Stream, error) {
	return c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/breeds",
		Query:  url.Values{"category_eq": {category}},
	})
}
