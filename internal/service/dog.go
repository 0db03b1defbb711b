package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/bytestream"
	"github.com/nao1215/littlewalk/pkg/httpclient"
	"github.com/nao1215/littlewalk/pkg/passthrough"
)

// EnsureOwner はユーザーが犬の飼い主であることを確認する。
// 飼い主でなければ403を返す。犬を変更するリクエストは転送前に必ずこれを通す。
func (s *Service) EnsureOwner(ctx context.Context, userID, dogID string) error {
	ok, err := s.dog.IsOwnerOfTheDog(ctx, userID, dogID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden("you are not the owner of the dog")
	}
	return nil
}

// UpdateDog は飼い主であることを確認してから犬の情報を更新する。
// 飼い主でない場合、更新は一切行わない。
func (s *Service) UpdateDog(ctx context.Context, userID, dogID string, body []byte) (*bytestream.Stream, error) {
	if err := s.EnsureOwner(ctx, userID, dogID); err != nil {
		return nil, err
	}
	return s.dog.UpdateDog(ctx, dogID, body)
}

// UpdateDogPortrait は飼い主であることを確認してから犬のポートレートを更新する。
func (s *Service) UpdateDogPortrait(ctx context.Context, userID, dogID, portraitID string) (*bytestream.Stream, error) {
	if err := s.EnsureOwner(ctx, userID, dogID); err != nil {
		return nil, err
	}
	return s.dog.UpdateDogPortrait(ctx, dogID, portraitID)
}

// QueryBreeds はカテゴリに属する犬種を返す。
func (s *Service) QueryBreeds(ctx context.Context, category string) (*bytestream.Stream, error) {
	return s.dog.QueryBreeds(ctx, category)
}

// CreateDogRequestProcessor は犬の登録リクエストのボディに飼い主IDを設定するProcessorを返す。
// 飼い主IDは認証ミドルウェアが設定したX-User-IDヘッダーから取得し、
// クライアントが送ったowner_idは上書きする。
func (s *Service) CreateDogRequestProcessor() passthrough.Processor {
	return func(r *http.Request, body []byte) ([]byte, error) {
		ownerID := r.Header.Get(httpclient.HeaderUserID)
		if ownerID == "" {
			return nil, apperror.Unauthorized("no user id")
		}

		var payload map[string]json.RawMessage
		if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
			return nil, apperror.InvalidRequest("request body must be a JSON object")
		}
		encodedOwner, err := json.Marshal(ownerID)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		payload["owner_id"] = encodedOwner

		out, err := json.Marshal(payload)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		return out, nil
	}
}
