package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/tools"
)

// imageFlags は画像ツール固有のフラグなのだ。ツールごとに使うものだけ読むのだ。
var imageFlags struct {
	Prompt    string
	Mode      string
	Style     string
	Preset    string
	X, Y      int
	Realistic bool
	Logo      string
	Aspect    string
	Item      string
	Material  string
	Shape     string
	Contact   prompts.Contact
}

// imageTool は1つの画像ツールの定義なのだ。
type imageTool struct {
	name   string
	short  string
	inputs int // 必要な --input の最小数
	run    func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error)
}

var imageTools = []imageTool{
	{
		name: "restore", short: "古い写真の修復・カラー化・高画質化・部分編集を行うのだ。", inputs: 1,
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.RestorePhoto(ctx, tools.RestoreRequest{
				Image:       in[0],
				Mode:        prompts.RestoreMode(imageFlags.Mode),
				ColorStyle:  prompts.ColorStyle(imageFlags.Style),
				Instruction: imageFlags.Prompt,
			})
		},
	},
	{
		name: "angle", short: "被写体を別のカメラアングルから描き直すのだ。", inputs: 1,
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.ChangeAngle(ctx, tools.AngleRequest{Image: in[0], Preset: imageFlags.Preset, X: imageFlags.X, Y: imageFlags.Y})
		},
	},
	{
		name: "group", short: "複数人物の写真を1つの場面に合成するのだ。", inputs: 1,
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.ComposeGroup(ctx, tools.GroupRequest{People: in, Scene: imageFlags.Prompt, Realistic: imageFlags.Realistic})
		},
	},
	{
		name: "clone", short: "1枚目の背景とポーズに2枚目の顔を合成するのだ。", inputs: 2,
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.ClonePerson(ctx, tools.CloneRequest{Reference: in[0], Face: in[1]})
		},
	},
	{
		name: "me", short: "自分に似たキャラクターを指定の場面に登場させるのだ。", inputs: 1,
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.GenerateMe(ctx, tools.GenerateMeRequest{Photo: in[0], Scene: imageFlags.Prompt})
		},
	},
	{
		name: "product", short: "商品写真を指定の環境に配置するのだ。", inputs: 1,
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			req := tools.ProductRequest{Product: in[0], Setting: imageFlags.Prompt, AspectRatio: domain.AspectRatio(imageFlags.Aspect)}
			if imageFlags.Logo != "" {
				logo, err := app.Loader.Load(ctx, imageFlags.Logo)
				if err != nil {
					return domain.ImagePayload{}, err
				}
				req.Logo = &logo
			}
			return app.Studio.ProductPhoto(ctx, req)
		},
	},
	{
		name: "brand-mockup", short: "ロゴを使ったモックアップを生成するのだ。", inputs: 1,
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.BrandMockup(ctx, tools.MockupRequest{
				Logo:     in[0],
				Item:     imageFlags.Item,
				Material: prompts.Material(imageFlags.Material),
				Contact:  imageFlags.Contact,
			})
		},
	},
	{
		name: "logo", short: "説明文からベクター風ロゴを生成するのだ。",
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.GenerateLogo(ctx, tools.LogoRequest{Concept: imageFlags.Prompt, Style: imageFlags.Style, Shape: prompts.LogoShape(imageFlags.Shape)})
		},
	},
	{
		name: "cgi", short: "3DCG レンダリング風の画像を生成するのだ。",
		run: func(ctx context.Context, app *builder.AppContext, in []domain.ImagePayload) (domain.ImagePayload, error) {
			return app.Studio.GenerateCGI(ctx, tools.CGIRequest{Description: imageFlags.Prompt, Style: imageFlags.Style})
		},
	},
}

// imageCmd は、写真・広告系の画像ツールをまとめる親コマンドなのだ。
var imageCmd = &cobra.Command{
	Use:   "image <tool>",
	Short: "画像ツールを実行して PNG などを保存するのだ。",
	Long: `写真修復、アングル変更、集合写真、顔合成、商品写真、ブランドモックアップ、ロゴ、CGI の各ツールを実行するのだ。
入力画像は --input で指定するのだ（パス / URL / data URI、複数指定可）。`,
}

func init() {
	pf := imageCmd.PersistentFlags()
	pf.StringArrayVarP(&opts.Inputs, "input", "i", nil, "入力画像なのだ（繰り返し指定できるのだ）。")
	pf.StringVarP(&imageFlags.Prompt, "prompt", "p", "", "場面・設定・コンセプト・編集指示などの文章なのだ。")
	pf.StringVar(&imageFlags.Mode, "mode", string(prompts.RestoreModeRestore), "restore のモードなのだ（restore, colorize, enhance, object-edit）。")
	pf.StringVar(&imageFlags.Style, "style", "", "カラー化・ロゴ・CGI のスタイルなのだ。")
	pf.StringVar(&imageFlags.Preset, "preset", prompts.AngleCustom, "angle のプリセットなのだ（custom なら --x/--y を使うのだ）。")
	pf.IntVar(&imageFlags.X, "x", 0, "angle の水平回転（-180〜180 度）なのだ。")
	pf.IntVar(&imageFlags.Y, "y", 0, "angle の垂直回転（-90〜90 度）なのだ。")
	pf.BoolVar(&imageFlags.Realistic, "realistic", true, "group で顔の同一性を厳密に保つのだ。")
	pf.StringVar(&imageFlags.Logo, "logo", "", "product に合成するロゴ画像なのだ。")
	pf.StringVar(&imageFlags.Aspect, "aspect", "", "product のアスペクト比なのだ（16:9, 9:16, 1:1）。")
	pf.StringVar(&imageFlags.Item, "item", prompts.MockupItems[0], "brand-mockup のアイテムなのだ。")
	pf.StringVar(&imageFlags.Material, "material", string(prompts.MaterialOriginal), "brand-mockup のロゴの質感なのだ。")
	pf.StringVar(&imageFlags.Shape, "shape", "", "logo の形なのだ（square, circle）。")
	pf.StringVar(&imageFlags.Contact.Name, "contact-name", "", "brand-mockup に印字する名前なのだ。")
	pf.StringVar(&imageFlags.Contact.Phone, "contact-phone", "", "brand-mockup に印字する電話番号なのだ。")
	pf.StringVar(&imageFlags.Contact.Address, "contact-address", "", "brand-mockup に印字する住所なのだ。")
	pf.StringVar(&imageFlags.Contact.Website, "contact-website", "", "brand-mockup に印字する Web サイトなのだ。")

	for _, tool := range imageTools {
		imageCmd.AddCommand(newImageToolCmd(tool))
	}
}

func newImageToolCmd(tool imageTool) *cobra.Command {
	return &cobra.Command{
		Use:   tool.name,
		Short: tool.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(opts.Inputs) < tool.inputs {
				return fmt.Errorf("%s には --input が %d 枚以上必要なのだ", tool.name, tool.inputs)
			}

			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()
			inputs, err := app.Loader.LoadAll(ctx, opts.Inputs)
			if err != nil {
				return fmt.Errorf("入力画像の読み込みに失敗したのだ: %w", err)
			}

			slog.Info("画像ツールを実行するのだ！", "tool", tool.name, "inputs", len(inputs), "image_model", app.Config.GeminiImageModel)
			img, err := tool.run(ctx, app, inputs)
			if err != nil {
				return err
			}

			path, err := app.Publisher.SaveImage(ctx, app.Config.OutputDir, outputBaseName(tool.name), img)
			if err != nil {
				return fmt.Errorf("画像の保存に失敗したのだ: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// outputBaseName は上書きを避けるため、ツール名に短い乱数を付けるのだ。
func outputBaseName(tool string) string {
	return tool + "_" + uuid.NewString()[:8]
}
