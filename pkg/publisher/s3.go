package publisher

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config は S3 互換ストレージ (AWS S3, Cloudflare R2, MinIO など) への接続設定です。
type S3Config struct {
	Region   string
	Endpoint string // 空なら AWS の標準エンドポイントなのだ
}

// NewS3Client は標準の認証情報チェーン (環境変数・共有設定ファイル) から S3 クライアントを作るのだ。
// Endpoint を指定した場合は R2 などに合わせて Path-Style で接続するのだ。
// 作ったクライアントは remoteio.NewUniversalIOWriter / NewUniversalInputReader に渡して s3:// の読み書きに使います。
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("AWS 設定の読み込みに失敗しました: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
