package service

import (
	"context"
	"io"

	"github.com/nao1215/littlewalk/internal/entity"
	"github.com/nao1215/littlewalk/pkg/bytestream"
)

// AuthClient はアカウント・認証サービスのクライアント。
type AuthClient interface {
	// SignUp は電話番号とパスワードでアカウントを作成する。
	SignUp(ctx context.Context, phone, password string) (*bytestream.Stream, error)
	// Login は電話番号とパスワードでログインし、トークンを含むペイロードを返す。
	Login(ctx context.Context, phone, password string) (*bytestream.Stream, error)
	// VerifyToken はトークンを検証してユーザーIDを返す。
	VerifyToken(ctx context.Context, token string) (string, error)
	// ExistsUser は電話番号のユーザーが存在するかを返す。
	ExistsUser(ctx context.Context, phone string) (bool, error)
	// GenerateToken は電話番号のユーザーのトークンを発行する。
	GenerateToken(ctx context.Context, phone string) (*bytestream.Stream, error)
}

// DogClient は犬サービスのクライアント。
type DogClient interface {
	// QueryDogs は条件に一致する犬を返す。
	QueryDogs(ctx context.Context, query entity.DogQuery) ([]entity.Dog, error)
	// IsOwnerOfTheDog はownerIDのユーザーがdogIDの犬の飼い主かを返す。
	IsOwnerOfTheDog(ctx context.Context, ownerID, dogID string) (bool, error)
	// UpdateDog は犬の情報を更新する。bodyはクライアントが送ったJSONをそのまま送る。
	UpdateDog(ctx context.Context, dogID string, body []byte) (*bytestream.Stream, error)
	// UpdateDogPortrait は犬のポートレート画像を更新する。
	UpdateDogPortrait(ctx context.Context, dogID, portraitID string) (*bytestream.Stream, error)
	// QueryBreeds はカテゴリに属する犬種を返す。
	QueryBreeds(ctx context.Context, category string) (*bytestream.Stream, error)
}

// UploadClient はファイルアップロードサービスのクライアント。
type UploadClient interface {
	// Upload はボディをバッファリングせずにアップロードサービスへ送る。
	Upload(ctx context.Context, contentType, userID string, sizeLimit int64, body io.Reader) (*bytestream.Stream, error)
	// Download はファイルの内容をストリームとして返す。
	Download(ctx context.Context, id string) (*bytestream.Stream, error)
}

// SMSVerificationCodeClient はSMS認証コードサービスのクライアント。
type SMSVerificationCodeClient interface {
	// SendCode は電話番号に認証コードを送信する。
	SendCode(ctx context.Context, phone string) (*bytestream.Stream, error)
	// VerifyCode は認証コードが正しいかを返す。
	VerifyCode(ctx context.Context, phone, code string) (bool, error)
}

// WalkRequestClient は散歩リクエストサービスのクライアント。
type WalkRequestClient interface {
	// QueryWalkRequests は条件に一致する散歩リクエストを返す。
	QueryWalkRequests(ctx context.Context, query entity.WalkRequestQuery) ([]entity.UpstreamWalkRequest, error)
}
