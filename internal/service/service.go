// Package service はゲートウェイのユースケースを実装する。
//
// バックエンドごとのクライアントはインターフェースとして受け取るため、
// インメモリのフェイクに差し替えてテストできる。
// 複数のバックエンド呼び出しを組み合わせる処理（SMS認証付きログイン、
// 所有者確認付きの犬の更新、近くの散歩リクエストの集約）をここに置く。
package service

import (
	"go.uber.org/zap"
)

const (
	// DefaultNearbyRadius は近くの散歩リクエストを探す既定の半径。
	DefaultNearbyRadius = 20.0
	// DefaultUploadSizeLimit はアップロードサイズの既定の上限（1MiB）。
	DefaultUploadSizeLimit int64 = 1024 * 1024
)

// Service はバックエンドクライアントを組み合わせてユースケースを提供する。
// リクエストをまたいで変更される状態は持たない。
type Service struct {
	// auth はアカウント・認証サービスのクライアント。
	auth AuthClient
	// upload はファイルアップロードサービスのクライアント。
	upload UploadClient
	// sms はSMS認証コードサービスのクライアント。
	sms SMSVerificationCodeClient
	// dog は犬サービスのクライアント。
	dog DogClient
	// walkRequest は散歩リクエストサービスのクライアント。
	walkRequest WalkRequestClient
	// nearbyRadius は近くの散歩リクエストを探す半径。
	nearbyRadius float64
	// uploadSizeLimit はアップロードサイズの上限。
	uploadSizeLimit int64
	// logger はロガー。
	logger *zap.Logger
}

// Option はServiceの設定を変更する関数。
type Option func(*Service)

// WithLogger はロガーを設定する。
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNearbyRadius は近くの散歩リクエストを探す半径を設定する。
func WithNearbyRadius(radius float64) Option {
	return func(s *Service) {
		s.nearbyRadius = radius
	}
}

// WithUploadSizeLimit はアップロードサイズの上限を設定する。
func WithUploadSizeLimit(limit int64) Option {
	return func(s *Service) {
		s.uploadSizeLimit = limit
	}
}

// New は新しいServiceを生成する。
func New(
	auth AuthClient,
	upload UploadClient,
	sms SMSVerificationCodeClient,
	dog DogClient,
	walkRequest WalkRequestClient,
	opts ...Option,
) *Service {
	s := &Service{
		auth:            auth,
		upload:          upload,
		sms:             sms,
		dog:             dog,
		walkRequest:     walkRequest,
		nearbyRadius:    DefaultNearbyRadius,
		uploadSizeLimit: DefaultUploadSizeLimit,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
