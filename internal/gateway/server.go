package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nao1215/littlewalk/internal/client/auth"
	"github.com/nao1215/littlewalk/internal/client/dog"
	"github.com/nao1215/littlewalk/internal/client/sms"
	"github.com/nao1215/littlewalk/internal/client/upload"
	"github.com/nao1215/littlewalk/internal/client/walkrequest"
	"github.com/nao1215/littlewalk/internal/service"
	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/httpclient"
	"github.com/nao1215/littlewalk/pkg/middleware"
	"github.com/nao1215/littlewalk/pkg/passthrough"
)

// shutdownTimeout はサーバー停止時に処理中のリクエストを待つ時間。
const shutdownTimeout = 15 * time.Second

// Server はゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// config はゲートウェイの設定。
	config Config
	// service はユースケースの実装。
	service *service.Service
	// registry はメトリクスのレジストリ。
	registry *prometheus.Registry
	// logger はロガー。
	logger *zap.Logger
	// clientOptions は転送ハンドラのバックエンド呼び出しに使うオプション。
	clientOptions []httpclient.Option
}

// NewServer は設定からバックエンドクライアントを生成し、ゲートウェイサーバーを組み立てる。
// すべてのバックエンド呼び出しは1つのHTTPクライアントを共有し、接続プールを使い回す。
func NewServer(cfg Config, logger *zap.Logger) *Server {
	shared := httpclient.WithHTTPClient(&http.Client{Timeout: httpclient.DefaultTimeout})
	svc := service.New(
		auth.New(cfg.AuthServiceAddress, shared),
		upload.New(cfg.UploadServiceAddress, shared),
		sms.New(cfg.SMSVerificationCodeServiceAddress, shared),
		dog.New(cfg.DogServiceAddress, shared),
		walkrequest.New(cfg.WalkRequestServiceAddress, shared),
		service.WithLogger(logger),
		service.WithNearbyRadius(cfg.NearbyRadius),
		service.WithUploadSizeLimit(cfg.UploadSizeLimit),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := gin.New()
	// 末尾のスラッシュも含めてパスをそのまま既定の転送先へ渡す
	router.RedirectTrailingSlash = false
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(middleware.Metrics(registry))
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))
	router.Use(middleware.StripIdentity())

	s := &Server{
		router:        router,
		config:        cfg,
		service:       svc,
		registry:      registry,
		logger:        logger,
		clientOptions: []httpclient.Option{shared},
	}
	s.setupRoutes()
	return s
}

// Handler はサーバーのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまで処理を続ける。
// キャンセル後は処理中のリクエストの完了を待ってから停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ゲートウェイを起動します", zap.String("address", s.config.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ゲートウェイの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("ゲートウェイを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ゲートウェイの停止に失敗: %w", err)
	}
	return nil
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	cfg := s.config
	withLogger := passthrough.WithLogger(s.logger)
	withClient := passthrough.WithClientOptions(s.clientOptions...)
	authenticate := middleware.TokenAuth(s.service)

	// 既定の転送先。アカウント・散歩リクエスト・アップロードはバックエンドのステータスを返し、
	// 犬と犬種は200に正規化する。
	accountsPassThrough := passthrough.New(cfg.AuthServiceAddress, withLogger, withClient,
		passthrough.WithStatusPolicy(passthrough.RelayStatus))
	dogPassThrough := passthrough.New(cfg.DogServiceAddress, withLogger, withClient)
	walkRequestPassThrough := passthrough.New(cfg.WalkRequestServiceAddress, withLogger, withClient,
		passthrough.WithStatusPolicy(passthrough.RelayStatus))
	uploadPassThrough := passthrough.New(cfg.UploadServiceAddress, withLogger, withClient,
		passthrough.WithStatusPolicy(passthrough.RelayStatus))

	// アカウント（認証不要）
	accounts := s.router.Group("/accounts")
	{
		accounts.POST("/signup", s.handleSignUp())
		accounts.PUT("/login", s.handleLogin())
		accounts.PUT("/login/by_sms_verification_code", s.handleLoginBySMSVerificationCode())
		accounts.PUT("/phones/:phone/verification_codes", s.handleSendVerificationCode())
		accounts.GET("/tokens/:token/verification", s.handleVerifyToken())
	}

	// 認証必須のAPIエンドポイント
	api := s.router.Group("/apis")
	api.Use(authenticate)
	{
		// 犬
		api.GET("/dogs", dogPassThrough)
		api.POST("/dogs", passthrough.New(cfg.DogServiceAddress, withLogger, withClient,
			passthrough.WithRequestProcessor(s.service.CreateDogRequestProcessor())))
		api.PUT("/dogs/:id", s.handleUpdateDog())
		api.PUT("/dogs/:id/portrait", s.handleUpdateDogPortrait())
		api.GET("/dogs/breeds", s.handleQueryBreeds())

		// アップロード
		api.POST("/uploads", s.handleUpload())
		api.GET("/uploads/:id", s.handleDownload())

		// 散歩リクエスト
		api.GET("/walk_requests/nearby", s.handleNearbyRequests())
		fillDogs := passthrough.New(cfg.WalkRequestServiceAddress, withLogger, withClient,
			passthrough.WithResponseProcessor(s.service.FillDogsProcessor()),
			passthrough.WithStatusPolicy(passthrough.RelayStatus))
		for _, action := range []string{"accepted_by", "start", "finish"} {
			api.Any("/walk_requests/:id/"+action, fillDogs)
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
	// メトリクス
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// 登録されていないパスは接頭辞で既定の転送先に振り分ける
	s.router.NoRoute(dispatch([]fallbackRoute{
		{prefix: "/accounts", handlers: []gin.HandlerFunc{accountsPassThrough}},
		{prefix: dogsPathPrefix, handlers: []gin.HandlerFunc{authenticate, s.guardDogMutation(), dogPassThrough}},
		{prefix: "/apis/breeds", handlers: []gin.HandlerFunc{authenticate, dogPassThrough}},
		{prefix: "/apis/walk_requests", handlers: []gin.HandlerFunc{authenticate, walkRequestPassThrough}},
		{prefix: "/apis/uploads", handlers: []gin.HandlerFunc{authenticate, uploadPassThrough}},
	}))
}

// fallbackRoute はパスの接頭辞と、それに一致したときに順に実行するハンドラ。
type fallbackRoute struct {
	prefix   string
	handlers []gin.HandlerFunc
}

// dispatch は最初に接頭辞が一致したfallbackRouteのハンドラを順に実行するハンドラを返す。
// ハンドラがリクエストを中断した時点で残りは実行しない。どれにも一致しなければ404を返す。
func dispatch(routes []fallbackRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, r := range routes {
			if !hasPathPrefix(path, r.prefix) {
				continue
			}
			for _, h := range r.handlers {
				h(c)
				if c.IsAborted() {
					return
				}
			}
			return
		}
		apperror.Respond(c, apperror.NotFound("not found"))
	}
}

// hasPathPrefix はpathがprefixそのもの、またはprefix配下のパスかを返す。
func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
