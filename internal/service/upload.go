package service

import (
	"context"
	"io"

	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/bytestream"
)

// Upload はボディをバッファリングせずにアップロードサービスへ転送する。
// サイズ上限はゲートウェイの設定値をX-Size-Limitとして渡し、判定はアップロードサービスが行う。
func (s *Service) Upload(ctx context.Context, contentType, userID string, body io.Reader) (*bytestream.Stream, error) {
	if contentType == "" {
		return nil, apperror.InvalidRequest("Content-Type header is required")
	}
	return s.upload.Upload(ctx, contentType, userID, s.uploadSizeLimit, body)
}

// Download はファイルの内容をストリームとして返す。
func (s *Service) Download(ctx context.Context, id string) (*bytestream.Stream, error) {
	return s.upload.Download(ctx, id)
}
