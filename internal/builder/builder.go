package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-utils/urlpath"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// IO は生成物の書き出し先と参照ファイルの読み込み元をまとめたものなのだ。
type IO struct {
	Reader remoteio.InputReader
	Writer remoteio.OutputWriter
	closer io.Closer
}

// Close はクラウドストレージのクライアントを解放します。
func (s IO) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// BuildAppContext は設定から全コンポーネントを組み立てます。
// API キーが無い場合はネットワークに触れる前に失敗するのだ。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	aiClient, err := InitializeAIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pb, err := prompts.NewBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}

	storage, err := InitializeIO(ctx, cfg)
	if err != nil {
		return nil, err
	}

	loader := asset.NewLoader(httpkit.New(cfg.HTTPTimeout), storage.Reader)
	pub := publisher.NewPublisher(storage.Writer)
	app := NewAppContext(cfg, aiClient, pb, loader, pub)
	app.closer = storage
	return app, nil
}

// InitializeIO は OUTPUT_DIR のスキームに応じて読み書きの実装を選ぶのだ。
//   - gs://bucket/... : Application Default Credentials で GCS に接続
//   - s3://bucket/... : 標準の認証情報チェーンで S3 (S3_ENDPOINT があれば R2 / MinIO) に接続
//   - それ以外 : ローカルファイルシステム
func InitializeIO(ctx context.Context, cfg *config.Config) (IO, error) {
	switch {
	case urlpath.IsGCSURI(cfg.OutputDir):
		factory, err := gcsfactory.New(ctx)
		if err != nil {
			return IO{}, fmt.Errorf("GCSクライアントの初期化に失敗しました: %w", err)
		}
		reader, err := factory.InputReader()
		if err != nil {
			_ = factory.Close()
			return IO{}, err
		}
		writer, err := factory.OutputWriter()
		if err != nil {
			_ = factory.Close()
			return IO{}, err
		}
		slog.Info("生成物は GCS に保存するのだ", "output_dir", cfg.OutputDir)
		return IO{Reader: reader, Writer: writer, closer: factory}, nil

	case urlpath.IsS3URI(cfg.OutputDir):
		client, err := publisher.NewS3Client(ctx, publisher.S3Config{
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return IO{}, fmt.Errorf("S3クライアントの初期化に失敗しました: %w", err)
		}
		slog.Info("生成物は S3 互換ストレージに保存するのだ", "output_dir", cfg.OutputDir, "endpoint", cfg.S3Endpoint)
		return IO{
			Reader: remoteio.NewUniversalInputReader(nil, client),
			Writer: remoteio.NewUniversalIOWriter(nil, client),
		}, nil
	}

	return IO{
		Reader: remoteio.NewUniversalInputReader(nil, nil),
		Writer: remoteio.NewUniversalIOWriter(nil, nil),
	}, nil
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, cfg *config.Config) (*gemini.Client, error) {
	aiClient, err := gemini.New(ctx, gemini.Config{
		APIKey:      cfg.GeminiAPIKey,
		TextModel:   cfg.GeminiModel,
		ImageModel:  cfg.GeminiImageModel,
		HTTPTimeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}
