package gateway

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/littlewalk/internal/service"
)

// Config はゲートウェイの設定。
type Config struct {
	// ListenAddress はサーバーのリッスンアドレス。
	ListenAddress string
	// LogLevel はログレベル。
	LogLevel string
	// LogFormat はログの出力形式（json または console）。
	LogFormat string
	// FrontendURL はCORSで許可するオリジン。
	FrontendURL string
	// AuthServiceAddress はアカウント・認証サービスのアドレス。
	AuthServiceAddress string
	// UploadServiceAddress はファイルアップロードサービスのアドレス。
	UploadServiceAddress string
	// SMSVerificationCodeServiceAddress はSMS認証コードサービスのアドレス。
	SMSVerificationCodeServiceAddress string
	// DogServiceAddress は犬サービスのアドレス。
	DogServiceAddress string
	// WalkRequestServiceAddress は散歩リクエストサービスのアドレス。
	WalkRequestServiceAddress string
	// NearbyRadius は近くの散歩リクエストを探す半径。
	NearbyRadius float64
	// UploadSizeLimit はアップロードサイズの上限（バイト）。
	UploadSizeLimit int64
}

// LoadConfig は環境変数から設定を読み込む。
// バックエンドサービスのアドレスは必須で、未設定のものがあればすべて列挙してエラーを返す。
func LoadConfig() (Config, error) {
	cfg := Config{
		ListenAddress: getEnvOr("LISTEN_ADDRESS", ":8080"),
		LogLevel:      getEnvOr("LOG_LEVEL", "info"),
		LogFormat:     getEnvOr("LOG_FORMAT", "json"),
		FrontendURL:   getEnvOr("FRONTEND_URL", "http://localhost:3000"),
	}

	var missing []string
	required := []struct {
		key string
		dst *string
	}{
		{"AUTH_SERVICE_ADDRESS", &cfg.AuthServiceAddress},
		{"UPLOAD_SERVICE_ADDRESS", &cfg.UploadServiceAddress},
		{"SMS_VERIFICATION_CODE_SERVICE_ADDRESS", &cfg.SMSVerificationCodeServiceAddress},
		{"DOG_SERVICE_ADDRESS", &cfg.DogServiceAddress},
		{"WALK_REQUEST_SERVICE_ADDRESS", &cfg.WalkRequestServiceAddress},
	}
	for _, r := range required {
		*r.dst = os.Getenv(r.key)
		if *r.dst == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}

	radius, err := strconv.ParseFloat(getEnvOr("NEARBY_RADIUS", strconv.FormatFloat(service.DefaultNearbyRadius, 'f', -1, 64)), 64)
	if err != nil || radius <= 0 {
		return Config{}, fmt.Errorf("NEARBY_RADIUS が不正です: %q", os.Getenv("NEARBY_RADIUS"))
	}
	cfg.NearbyRadius = radius

	limit, err := strconv.ParseInt(getEnvOr("UPLOAD_SIZE_LIMIT", strconv.FormatInt(service.DefaultUploadSizeLimit, 10)), 10, 64)
	if err != nil || limit <= 0 {
		return Config{}, fmt.Errorf("UPLOAD_SIZE_LIMIT が不正です: %q", os.Getenv("UPLOAD_SIZE_LIMIT"))
	}
	cfg.UploadSizeLimit = limit

	return cfg, nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
