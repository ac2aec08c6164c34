package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/storyboard"
)

const (
	HTMLFileName    = "storyboard_project.html"
	ArchiveFileName = "storyboard_images.zip"
	ScenesFileName  = "scenes.json"

	defaultConcurrency = 4
)

// PanelFileName は単体パネルのファイル名を返します。
func PanelFileName(sceneID int) string {
	return fmt.Sprintf("storyboard_scene_%d.jpg", sceneID)
}

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// RunID が指定されていれば OutputDir/<RunID> に出力するのだ
	RunID string
	// Panels が true なら画像のあるシーンごとに注釈付き JPEG も書き出すのだ
	Panels bool
	// Concurrency はパネル描画の並列数です。0 なら既定値を使います。
	Concurrency int
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	Dir         string
	HTMLPath    string
	ArchivePath string
	ScenesPath  string
	PanelPaths  map[int]string
}

// Publisher は成果物の永続化とフォーマット変換を担います。
type Publisher struct {
	writer remoteio.OutputWriter
}

// NewPublisher は Publisher を生成します。writer が nil ならローカルに書き出すのだ。
func NewPublisher(writer remoteio.OutputWriter) *Publisher {
	if writer == nil {
		writer = remoteio.NewUniversalIOWriter(nil, nil)
	}
	return &Publisher{writer: writer}
}

// Publish は HTML、ZIP、scenes.json、(必要なら) パネル画像を並行して書き出し、生成されたファイル情報を返却するのだ！
func (p *Publisher) Publish(ctx context.Context, res *storyboard.Result, opts Options) (PublishResult, error) {
	if res == nil {
		return PublishResult{}, fmt.Errorf("publisher: 結果が空です")
	}
	dir, err := RunDir(opts.OutputDir, opts.RunID)
	if err != nil {
		return PublishResult{}, err
	}
	am := NewAssetManager(p.writer, dir)
	result := PublishResult{Dir: dir, PanelPaths: make(map[int]string)}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	eg.Go(func() error {
		data, err := BuildHTML(res.Scenes, res.Images)
		if err != nil {
			return err
		}
		path, err := am.Save(egCtx, HTMLFileName, data)
		if err != nil {
			return err
		}
		mu.Lock()
		result.HTMLPath = path
		mu.Unlock()
		return nil
	})

	eg.Go(func() error {
		data, err := BuildArchive(res.Images)
		if err != nil {
			return err
		}
		path, err := am.Save(egCtx, ArchiveFileName, data)
		if err != nil {
			return err
		}
		mu.Lock()
		result.ArchivePath = path
		mu.Unlock()
		return nil
	})

	eg.Go(func() error {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("scenes.json の生成に失敗しました: %w", err)
		}
		path, err := am.Save(egCtx, ScenesFileName, data)
		if err != nil {
			return err
		}
		mu.Lock()
		result.ScenesPath = path
		mu.Unlock()
		return nil
	})

	if opts.Panels {
		for _, sc := range domain.Scenes(res.Scenes).SortByID() {
			if !res.Images.Has(sc.ID) {
				continue
			}
			eg.Go(func() error {
				data, err := BuildPanel(sc, res.Images[sc.ID], res.AspectRatio)
				if err != nil {
					return err
				}
				path, err := am.Save(egCtx, PanelFileName(sc.ID), data)
				if err != nil {
					return err
				}
				mu.Lock()
				result.PanelPaths[sc.ID] = path
				mu.Unlock()
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return result, fmt.Errorf("成果物の書き出しに失敗しました: %w", err)
	}

	slog.Info("Storyboard published",
		"dir", dir,
		"html", result.HTMLPath,
		"archive", result.ArchivePath,
		"panels", len(result.PanelPaths))
	return result, nil
}

// SaveImage はツールの生成画像を MIME タイプに応じた拡張子で保存するのだ。
func (p *Publisher) SaveImage(ctx context.Context, dir, baseName string, img domain.ImagePayload) (string, error) {
	if img.IsEmpty() {
		return "", fmt.Errorf("publisher: 画像データが空です")
	}
	return NewAssetManager(p.writer, dir).Save(ctx, baseName+img.Extension(), img.Data)
}

// SaveJSON は構造化結果を整形済み JSON で保存します。
func (p *Publisher) SaveJSON(ctx context.Context, dir, baseName string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSON の生成に失敗しました: %w", err)
	}
	return NewAssetManager(p.writer, dir).Save(ctx, baseName+".json", data)
}

// SaveDocument は Markdown とその HTML 版を並行して保存するのだ。
func (p *Publisher) SaveDocument(ctx context.Context, dir, baseName, title, md string) (mdPath, htmlPath string, err error) {
	am := NewAssetManager(p.writer, dir)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		mdPath, err = am.Save(egCtx, baseName+".md", []byte(md))
		return err
	})
	eg.Go(func() error {
		page, err := RenderMarkdown(title, md)
		if err != nil {
			return err
		}
		htmlPath, err = am.Save(egCtx, baseName+".html", page)
		return err
	})

	if err := eg.Wait(); err != nil {
		return "", "", err
	}
	return mdPath, htmlPath, nil
}
