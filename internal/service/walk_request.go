package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/littlewalk/internal/entity"
	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/passthrough"
)

// NearbyRequests は指定位置の近くの散歩リクエストを、犬の情報を解決した状態で返す。
//
// 散歩リクエストを1回検索したあと、各散歩リクエストの犬を並行して検索する。
// 結果の順序は散歩リクエストの検索結果の順序と一致する。
// いずれかの犬の検索が失敗した場合は全体を失敗とし、部分的な結果は返さない。
func (s *Service) NearbyRequests(ctx context.Context, latitude, longitude float64, page entity.Pagination) ([]entity.WalkRequest, error) {
	upstream, err := s.walkRequest.QueryWalkRequests(ctx, entity.WalkRequestQuery{
		Nearby: &entity.Nearby{
			Latitude:  latitude,
			Longitude: longitude,
			Radius:    s.nearbyRadius,
		},
		Pagination: &page,
	})
	if err != nil {
		return nil, err
	}

	results := make([]entity.WalkRequest, len(upstream))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range upstream {
		g.Go(func() error {
			wr, err := s.composeWalkRequest(gctx, r)
			if err != nil {
				return err
			}
			results[i] = wr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("散歩リクエストの犬の解決に失敗",
			zap.Int("walk_requests", len(upstream)),
			zap.Error(err),
		)
		return nil, err
	}
	return results, nil
}

// composeWalkRequest は散歩リクエストのdog_idsを解決済みの犬に置き換える。
func (s *Service) composeWalkRequest(ctx context.Context, r entity.UpstreamWalkRequest) (entity.WalkRequest, error) {
	dogs, err := s.resolveDogs(ctx, r.ID, r.DogIDs)
	if err != nil {
		return entity.WalkRequest{}, err
	}
	return entity.NewWalkRequest(r, dogs), nil
}

// resolveDogs は犬IDの一覧を犬に解決する。
// 戻り値はidsと同じ順序・同じ件数で、解決できないIDが一つでもあればエラーを返す。
func (s *Service) resolveDogs(ctx context.Context, walkRequestID string, ids []string) ([]entity.Dog, error) {
	if len(ids) == 0 {
		return []entity.Dog{}, nil
	}

	found, err := s.dog.QueryDogs(ctx, entity.DogQuery{IDIn: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]entity.Dog, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}

	dogs := make([]entity.Dog, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, apperror.Newf(http.StatusInternalServerError,
				"dog %s of walk request %s not found", id, walkRequestID)
		}
		dogs = append(dogs, d)
	}
	return dogs, nil
}

// FillDogsProcessor は散歩リクエストサービスのレスポンスに含まれる1件の散歩リクエストについて、
// dog_idsを解決済みの犬に置き換えるProcessorを返す。
// 散歩リクエストの承諾・開始・終了など、更新後の散歩リクエストを返すエンドポイントで使用する。
// HEADや204のようにボディが空のレスポンスはそのまま返す。
func (s *Service) FillDogsProcessor() passthrough.Processor {
	return func(r *http.Request, body []byte) ([]byte, error) {
		if len(bytes.TrimSpace(body)) == 0 {
			return body, nil
		}
		var upstream entity.UpstreamWalkRequest
		if err := json.Unmarshal(body, &upstream); err != nil {
			return nil, apperror.Internal(fmt.Errorf("散歩リクエストのデシリアライズに失敗: %w", err))
		}
		wr, err := s.composeWalkRequest(r.Context(), upstream)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(wr)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		return out, nil
	}
}
