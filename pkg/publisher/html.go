package publisher

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const htmlExportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>AI Storyboard Export</title>
<style>
body { background-color: #111827; color: #fff; font-family: sans-serif; margin: 0; padding: 40px; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(300px, 1fr)); gap: 24px; max-width: 1200px; margin: 0 auto; }
.card { background: #1f2937; border-radius: 12px; overflow: hidden; border: 1px solid #374151; transition: transform 0.2s; }
.card:hover { transform: translateY(-5px); }
.image-container { position: relative; aspect-ratio: 16/9; background: #000; }
img { width: 100%; height: 100%; object-fit: cover; }
.badge { position: absolute; top: 10px; left: 10px; background: rgba(0,0,0,0.8); padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; }
.placeholder { width: 100%; height: 100%; display: flex; align-items: center; justify-content: center; color: #6b7280; font-size: 12px; text-transform: uppercase; }
.content { padding: 16px; }
.desc { font-size: 14px; line-height: 1.5; margin-bottom: 16px; color: #d1d5db; }
.camera { font-size: 12px; color: #ef4444; font-weight: bold; text-transform: uppercase; background: rgba(239, 68, 68, 0.1); padding: 8px; border-radius: 6px; display: inline-block; }
</style>
</head>
<body>
<h1 style="text-align: center; margin-bottom: 40px; text-transform: uppercase; letter-spacing: 2px;">Storyboard Project</h1>
<div class="grid">
{{- range .}}
<div class="card" data-scene-id="{{.ID}}">
<div class="image-container">
{{- if .Image}}
<img src="{{.Image}}" alt="Scene {{.ID}}" />
{{- else}}
<div class="placeholder">No Image</div>
{{- end}}
<div class="badge">Scene {{.ID}}</div>
</div>
<div class="content">
<p class="desc">{{.Description}}</p>
<div class="camera"><span class="icon">📹</span> {{.CameraMovement}}</div>
</div>
</div>
{{- end}}
</div>
</body>
</html>
`

var htmlExport = template.Must(template.New("storyboard_project").Parse(htmlExportTemplate))

type htmlCard struct {
	ID             int
	Description    string
	CameraMovement string
	// data URI は html/template に安全な URL として渡す必要があるのだ
	Image template.URL
}

// BuildHTML はシーン一覧と生成済み画像から、外部依存の無い単一の HTML 文書を組み立てるのだ。
// 画像の無いシーンはプレースホルダーで描画します。
func BuildHTML(scenes []domain.Scene, images domain.SceneImageMap) ([]byte, error) {
	ordered := domain.Scenes(scenes).SortByID()
	cards := make([]htmlCard, 0, len(ordered))
	for _, sc := range ordered {
		card := htmlCard{ID: sc.ID, Description: sc.Description, CameraMovement: sc.CameraMovement}
		if images.Has(sc.ID) {
			card.Image = template.URL(images[sc.ID].DataURI())
		}
		cards = append(cards, card)
	}

	var buf bytes.Buffer
	if err := htmlExport.Execute(&buf, cards); err != nil {
		return nil, fmt.Errorf("HTML エクスポートの生成に失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
