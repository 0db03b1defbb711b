// ゲートウェイのエントリポイント。
// 認証、内部サービスへの転送、複数サービスの結果の集約を担当する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nao1215/littlewalk/internal/gateway"
	"github.com/nao1215/littlewalk/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ゲートウェイの実行に失敗: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .envは開発環境でのみ使うため、存在しなくてもよい
	_ = godotenv.Load()

	cfg, err := gateway.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := gateway.NewServer(cfg, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error("ゲートウェイが異常終了しました", zap.Error(err))
		return err
	}
	return nil
}
