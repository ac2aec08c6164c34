package config

import (
	"log/slog"
	"time"

	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/storyboard"
)

// デフォルト値の定義なのだ
const (
	DefaultModel       = gemini.DefaultTextModel
	DefaultImageModel  = gemini.DefaultImageModel
	DefaultHTTPTimeout = gemini.DefaultHTTPTimeout
	DefaultCooldown    = storyboard.DefaultCooldown
	DefaultServerAddr  = ":8080"
	DefaultOutputDir   = "output" // 生成物を保存するベースディレクトリなのだ
	DefaultS3Region    = "us-east-1"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	HTTPTimeout      time.Duration
	Cooldown         time.Duration
	ServerAddr       string
	OutputDir        string // ローカルパスのほか gs://bucket/prefix や s3://bucket/prefix も受け付けるのだ

	// S3 互換ストレージの接続先なのだ。OutputDir が s3:// のときだけ使うのだ
	S3Region   string
	S3Endpoint string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
// GEMINI_API_KEY が無ければ API_KEY も見るのだ。
func LoadConfig() *Config {
	apiKey := envutil.GetEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = envutil.GetEnv("API_KEY", "")
	}
	cfg := &Config{
		GeminiAPIKey:     apiKey,
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		HTTPTimeout:      durationEnv("HTTP_TIMEOUT", DefaultHTTPTimeout),
		Cooldown:         durationEnv("STORYBOARD_COOLDOWN", DefaultCooldown),
		ServerAddr:       envutil.GetEnv("SERVER_ADDR", DefaultServerAddr),
		OutputDir:        envutil.GetEnv("OUTPUT_DIR", DefaultOutputDir),
		S3Region:         envutil.GetEnv("S3_REGION", DefaultS3Region),
		S3Endpoint:       envutil.GetEnv("S3_ENDPOINT", ""),
	}
	return cfg
}

// Apply は CLI フラグで明示された値を環境変数の値より優先させるのだ。
func (c *Config) Apply(opts GenerateOptions) {
	c.Options = opts
	if opts.AIModel != "" {
		c.GeminiModel = opts.AIModel
	}
	if opts.ImageModel != "" {
		c.GeminiImageModel = opts.ImageModel
	}
	if opts.OutputDir != "" {
		c.OutputDir = opts.OutputDir
	}
	if opts.HTTPTimeout > 0 {
		c.HTTPTimeout = opts.HTTPTimeout
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	ScriptFile string   // --script-file
	ScenesFile string   // --scenes-file: 分解済みのシーン一覧（Markdown / JSON）
	Inputs     []string // --input: 画像ツールの入力（パス / URL / data URI）
	Reference  string   // --reference

	// 出力関連
	OutputDir string // --output-dir
	Panels    bool   // --panels

	// AI挙動設定
	AIModel     string // --model: テキスト生成用のGeminiモデル
	ImageModel  string // --image-model: 画像生成用のGeminiモデル
	SceneCount  string // --scenes: auto または 3〜10
	AspectRatio string // --aspect

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}
