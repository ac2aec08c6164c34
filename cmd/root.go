package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
)

const appName = "storyboard-kit"

// opts は全コマンドで共有する CLI フラグの値なのだ。
var opts config.GenerateOptions

var rootCmd = newRootCmd()

// newRootCmd は clibase の共通ルートコマンド (--verbose / --config) にアプリ固有のフラグとサブコマンドを載せるのだ。
func newRootCmd() *cobra.Command {
	cmd := clibase.NewRootCmd(appName, addAppFlags, preRunAppE)
	cmd.Short = "Gemini で絵コンテとクリエイティブ素材を生成するツールなのだ。"
	cmd.Long = `脚本をシーンに分解して絵コンテ画像を生成したり、写真修復・ロゴ・SWOT 分析などの
クリエイティブツールを実行したりするのだ。serve で HTTP API としても使えるのだよ。`
	cmd.SilenceUsage = true
	// 設定は環境変数とフラグだけで決めるので、clibase の --config は見せないのだ
	_ = cmd.PersistentFlags().MarkHidden("config")
	cmd.AddCommand(storyboardCmd, imageCmd, textCmd, serveCmd)
	return cmd
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "生成物を保存するディレクトリ（ローカル / gs://... / s3://...）なのだ（既定: $OUTPUT_DIR または output）。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "テキスト生成に使う Gemini モデル名なのだ（既定: $GEMINI_MODEL）。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Gemini モデル名なのだ（既定: $IMAGE_GEMINI_MODEL）。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", 0, "Gemini API と画像取得のタイムアウトなのだ（既定: $HTTP_TIMEOUT）。")
}

// preRunAppE は、コマンド実行前にロガーの設定と環境変数の必須チェックを行うのだ。
// --verbose は clibase が定義する共通フラグなのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	setupLogger(clibase.Flags.Verbose)

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if config.LoadConfig().GeminiAPIKey == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY (または API_KEY) が設定されていません: %w", gemini.ErrMissingAPIKey)
	}
	return nil
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadApp は環境変数とフラグから設定を組み立て、アプリケーションコンテキストを作るのだ。
func loadApp(ctx context.Context) (*builder.AppContext, error) {
	cfg := config.LoadConfig()
	cfg.Apply(opts)
	return builder.BuildAppContext(ctx, cfg)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
// Ctrl+C で実行中の生成を中断できるのだ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, gemini.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, gemini.MsgConfig)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
