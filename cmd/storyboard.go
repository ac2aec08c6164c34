package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/storyboard"
)

// storyboardCmd は、脚本の分解から絵コンテ画像の生成、保存までを実行するのだ。
var storyboardCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "脚本から絵コンテを生成して保存するのだ。",
	Long: `脚本をシーンに分解し、シーンごとに1枚ずつ絵コンテ画像を生成するのだ。
出力は HTML（ギャラリー）、画像 ZIP、scenes.json、オプションでパネル JPEG になるのだよ。`,
	RunE: storyboardCommand,
}

func init() {
	storyboardCmd.Flags().StringVarP(&opts.ScriptFile, "script-file", "f", "", "脚本ファイルのパス（省略または '-' で標準入力なのだ）。")
	storyboardCmd.Flags().StringVar(&opts.ScenesFile, "scenes-file", "", "分解済みのシーン一覧（Markdown / scenes.json）なのだ。指定すると分解を飛ばして画像だけ生成するのだ。")
	storyboardCmd.Flags().StringVar(&opts.SceneCount, "scenes", "auto", "シーン数なのだ（auto または 3〜10）。")
	storyboardCmd.Flags().StringVar(&opts.AspectRatio, "aspect", string(domain.AspectWide), "フレームのアスペクト比なのだ（16:9, 9:16, 1:1）。")
	storyboardCmd.Flags().StringVar(&opts.Reference, "reference", "", "キャラクター参照画像（パス / URL / data URI）なのだ。")
	storyboardCmd.Flags().BoolVar(&opts.Panels, "panels", false, "シーン説明入りのパネル JPEG も書き出すのだ。")
}

func storyboardCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 入力チェック
	var (
		script string
		scenes *parser.Script
		err    error
	)
	if opts.ScenesFile != "" {
		scenes, err = readScenes(opts.ScenesFile)
	} else {
		script, err = readScript(cmd.InOrStdin(), opts.ScriptFile)
	}
	if err != nil {
		return err
	}
	count, err := domain.ParseSceneCount(opts.SceneCount)
	if err != nil {
		return err
	}
	aspect, err := domain.ParseAspectRatio(opts.AspectRatio)
	if err != nil {
		return err
	}

	// 2. 環境変数とフラグから組み立てるのだ
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	req := domain.StoryboardRequest{Script: script, SceneCount: count, AspectRatio: aspect}
	if opts.Reference != "" {
		ref, err := app.Loader.Load(ctx, opts.Reference)
		if err != nil {
			return fmt.Errorf("参照画像の読み込みに失敗したのだ: %w", err)
		}
		req.Reference = &ref
	}

	slog.Info("絵コンテ生成パイプラインを起動するのだ！",
		"scenes", count.String(),
		"aspect_ratio", aspect,
		"text_model", app.Config.GeminiModel,
		"image_model", app.Config.GeminiImageModel,
		"with_reference", req.Reference != nil)

	// 3. 実行
	out := cmd.ErrOrStderr()
	pipe := app.NewPipeline(func(p storyboard.Progress) {
		status := "ok"
		if p.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(out, "[%3d%%] scene %d (%d/%d) %s\n", p.Percent, p.SceneID, p.Done, p.Total, status)
	})
	var (
		res    *storyboard.Result
		runErr error
	)
	if scenes != nil {
		res, runErr = pipe.RunScenes(ctx, scenes.Scenes, req.Reference, aspect)
	} else {
		res, runErr = pipe.Run(ctx, req)
	}
	if res == nil {
		return fmt.Errorf("絵コンテ生成中にエラーが発生したのだ: %w", runErr)
	}

	// 4. 中断された場合も、それまでの結果は保存するのだ
	if err := publishStoryboard(ctx, cmd.OutOrStdout(), app, res); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("絵コンテ生成が途中で中断されたのだ: %w", runErr)
	}
	for id, reason := range res.Failures {
		slog.Warn("Scene could not be generated", "scene_id", id, "reason", reason)
	}
	slog.Info("すべての生成工程が完了したのだ！", "run_id", res.RunID)
	return nil
}

func publishStoryboard(ctx context.Context, w io.Writer, app *builder.AppContext, res *storyboard.Result) error {
	// 保存は中断の影響を受けないようにするのだ
	pubCtx := context.WithoutCancel(ctx)
	out, err := app.Publisher.Publish(pubCtx, res, publisher.Options{
		OutputDir: app.Config.OutputDir,
		RunID:     res.RunID,
		Panels:    opts.Panels,
	})
	if err != nil {
		return fmt.Errorf("生成物の保存に失敗したのだ: %w", err)
	}
	fmt.Fprintln(w, out.HTMLPath)
	fmt.Fprintln(w, out.ArchivePath)
	fmt.Fprintln(w, out.ScenesPath)
	for _, id := range res.Images.SortedIDs() {
		if p, ok := out.PanelPaths[id]; ok {
			fmt.Fprintln(w, p)
		}
	}
	return nil
}

// readScenes は分解済みのシーン一覧を読み込むのだ。
func readScenes(path string) (*parser.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("シーン一覧の読み込みに失敗したのだ: %w", err)
	}
	script, err := parser.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("シーン一覧の解析に失敗したのだ (%s): %w", path, err)
	}
	slog.Info("シーン一覧を読み込んだのだ", "path", path, "title", script.Title, "scenes", len(script.Scenes))
	return script, nil
}

// readScript はファイルまたは標準入力から脚本を読み込むのだ。
func readScript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("脚本の読み込みに失敗したのだ: %w", err)
	}
	script := strings.TrimSpace(string(data))
	if script == "" {
		return "", storyboard.ErrEmptyScript
	}
	return script, nil
}
