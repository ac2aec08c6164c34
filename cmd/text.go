package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/tools"
)

// textFlags はテキストツール固有のフラグなのだ。
var textFlags struct {
	Company     string
	Description string
	Genre       string
	Idea        string
	Characters  string
	Product     string
	Audience    string
	Goal        string
}

// textOutput はテキストツールの結果なのだ。Markdown なら HTML も書き出し、そうでなければ JSON で保存するのだ。
type textOutput struct {
	title    string
	markdown string
	value    any
}

type textTool struct {
	name  string
	short string
	run   func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error)
}

var textTools = []textTool{
	{
		name: "extract-prompt", short: "画像を解析して再現用のプロンプトを抽出するのだ。",
		run: func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error) {
			img, err := firstInput(ctx, app)
			if err != nil {
				return textOutput{}, err
			}
			out, err := app.Studio.ExtractPrompt(ctx, img)
			return textOutput{title: "Extracted Prompt", markdown: out}, err
		},
	},
	{
		name: "brand-identity", short: "ロゴと会社名からブランドガイドを作るのだ。",
		run: func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error) {
			logo, err := firstInput(ctx, app)
			if err != nil {
				return textOutput{}, err
			}
			out, err := app.Studio.AnalyzeBrandIdentity(ctx, tools.BrandIdentityRequest{Logo: logo, Company: textFlags.Company})
			return textOutput{value: out}, err
		},
	},
	{
		name: "cinematic", short: "物語をショット単位の脚本ブレイクダウンに変換するのだ。",
		run: func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error) {
			story, err := readScript(cmd.InOrStdin(), opts.ScriptFile)
			if err != nil {
				return textOutput{}, err
			}
			shots, err := app.Studio.CinematicScript(ctx, story)
			return textOutput{value: shots}, err
		},
	},
	{
		name: "novel", short: "アイデアから小説の第1章を書くのだ。",
		run: func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error) {
			out, err := app.Studio.WriteNovel(ctx, tools.NovelRequest{Genre: textFlags.Genre, Idea: textFlags.Idea, Characters: textFlags.Characters})
			return textOutput{title: "Chapter One", markdown: out}, err
		},
	},
	{
		name: "polish", short: "脚本を推敲するのだ。",
		run: func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error) {
			script, err := readScript(cmd.InOrStdin(), opts.ScriptFile)
			if err != nil {
				return textOutput{}, err
			}
			out, err := app.Studio.OptimizeScript(ctx, script)
			return textOutput{title: "Polished Script", markdown: out}, err
		},
	},
	{
		name: "swot", short: "事業説明から SWOT 分析を行うのだ。",
		run: func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error) {
			out, err := app.Studio.SWOT(ctx, tools.SWOTRequest{Company: textFlags.Company, Description: textFlags.Description})
			return textOutput{value: out}, err
		},
	},
	{
		name: "marketing", short: "マーケティング戦略をマークダウンで作るのだ。",
		run: func(ctx context.Context, cmd *cobra.Command, app *builder.AppContext) (textOutput, error) {
			out, err := app.Studio.MarketingStrategy(ctx, tools.MarketingRequest{Product: textFlags.Product, Audience: textFlags.Audience, Goal: textFlags.Goal})
			return textOutput{title: "Marketing Strategy", markdown: out}, err
		},
	},
}

// textCmd は、文章系ツールをまとめる親コマンドなのだ。
var textCmd = &cobra.Command{
	Use:   "text <tool>",
	Short: "テキストツールを実行して Markdown / JSON を保存するのだ。",
	Long: `プロンプト抽出、ブランドガイド、脚本ブレイクダウン、小説、推敲、SWOT、マーケティングの各ツールを実行するのだ。
Markdown の結果は HTML にも変換して保存するのだよ。`,
}

func init() {
	pf := textCmd.PersistentFlags()
	pf.StringVarP(&opts.ScriptFile, "script-file", "f", "", "物語・脚本ファイルのパス（省略または '-' で標準入力なのだ）。")
	pf.StringArrayVarP(&opts.Inputs, "input", "i", nil, "入力画像なのだ（extract-prompt, brand-identity）。")
	pf.StringVar(&textFlags.Company, "company", "", "会社名なのだ。")
	pf.StringVar(&textFlags.Description, "description", "", "事業の説明なのだ。")
	pf.StringVar(&textFlags.Genre, "genre", "", "小説のジャンル・文体なのだ。")
	pf.StringVar(&textFlags.Idea, "idea", "", "小説の核となるアイデアなのだ。")
	pf.StringVar(&textFlags.Characters, "characters", "", "主な登場人物なのだ。")
	pf.StringVar(&textFlags.Product, "product", "", "商品名なのだ。")
	pf.StringVar(&textFlags.Audience, "audience", "", "ターゲット層なのだ。")
	pf.StringVar(&textFlags.Goal, "goal", "", "マーケティングの目標なのだ。")

	for _, tool := range textTools {
		textCmd.AddCommand(newTextToolCmd(tool))
	}
}

func newTextToolCmd(tool textTool) *cobra.Command {
	return &cobra.Command{
		Use:   tool.name,
		Short: tool.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			slog.Info("テキストツールを実行するのだ！", "tool", tool.name, "text_model", app.Config.GeminiModel)
			out, err := tool.run(ctx, cmd, app)
			if err != nil {
				return err
			}

			dir, base := app.Config.OutputDir, outputBaseName(tool.name)
			if out.value != nil {
				path, err := app.Publisher.SaveJSON(ctx, dir, base, out.value)
				if err != nil {
					return fmt.Errorf("結果の保存に失敗したのだ: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			mdPath, htmlPath, err := app.Publisher.SaveDocument(ctx, dir, base, out.title, out.markdown)
			if err != nil {
				return fmt.Errorf("結果の保存に失敗したのだ: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), mdPath)
			fmt.Fprintln(cmd.OutOrStdout(), htmlPath)
			return nil
		},
	}
}

func firstInput(ctx context.Context, app *builder.AppContext) (domain.ImagePayload, error) {
	if len(opts.Inputs) == 0 {
		return domain.ImagePayload{}, fmt.Errorf("--input で画像を指定してほしいのだ")
	}
	return app.Loader.Load(ctx, opts.Inputs[0])
}
