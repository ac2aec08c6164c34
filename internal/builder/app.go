package builder

import (
	"io"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/storyboard"
	"github.com/shouni/go-storyboard-kit/pkg/tools"
)

// AIClient は CLI とサーバーが必要とする生成バックエンドの操作なのだ。
// gemini.Client がこれを満たし、テストではフェイクに差し替えるのだ。
type AIClient interface {
	storyboard.Generator
	tools.Gateway
}

var _ AIClient = (*gemini.Client)(nil)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを CLI の各コマンドや HTTP サーバーに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config      // Configは、環境変数とフラグから決まった設定です（APIキー、モデル名など）。
	Prompts   *prompts.Builder    // Promptsは、埋め込みテンプレートから組み立てたプロンプトビルダーです。
	Studio    *tools.Studio       // Studioは、写真・広告・映像制作ツールの集まりです。
	Loader    *asset.Loader       // Loaderは、参照画像の読み込みに使う入力元です。
	Publisher *publisher.Publisher // Publisherは、生成された内容を保存するための出力先です。
	aiClient  AIClient            // aiClient はGeminiの通信に使う共通クライアント
	closer    io.Closer
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	aiClient AIClient,
	pb *prompts.Builder,
	loader *asset.Loader,
	pub *publisher.Publisher,
) *AppContext {
	return &AppContext{
		Config:    cfg,
		Prompts:   pb,
		Studio:    tools.NewStudio(aiClient, pb),
		Loader:    loader,
		Publisher: pub,
		aiClient:  aiClient,
	}
}

// Close はストレージのクライアントなど、保持しているリソースを解放します。
func (a *AppContext) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// NewPipeline は実行ごとに新しい絵コンテパイプラインを返すのだ。
// パイプラインは状態を持つので、リクエストやコマンドの間で共有しないのだ。
func (a *AppContext) NewPipeline(onProgress storyboard.ProgressFunc) *storyboard.Pipeline {
	return storyboard.New(a.aiClient, a.Prompts, storyboard.Options{
		Cooldown:   a.Config.Cooldown,
		OnProgress: onProgress,
	})
}
