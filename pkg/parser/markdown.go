package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	fieldKeyDescription = "description"
	fieldKeyAction      = "action"
	fieldKeyCamera      = "camera"
	fieldKeyCameraMove  = "camera_movement"
)

// MarkdownParser は手書きのシーン一覧 (Markdown) を解析し、シーン配列に変換する構造体です。
//
//	# タイトル
//	## Scene 1
//	- description: 夜明けの港
//	- camera: ゆっくりパン
type MarkdownParser struct{}

// NewMarkdownParser は MarkdownParser を初期化するのだ。
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse は Markdown テキストを解析してシーン一覧を返します。
// 見出しに番号が無いシーンは登場順に番号を振るのだ。
func (p *MarkdownParser) Parse(input string) (*Script, error) {
	script := &Script{}
	var current *domain.Scene

	// 前のシーンを確定して追加するヘルパー関数
	addPrevious := func() {
		if current != nil && hasContent(current) {
			script.Scenes = append(script.Scenes, *current)
		}
	}

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := SceneRegex.FindStringSubmatch(trimmed); m != nil {
			addPrevious()
			id := len(script.Scenes) + 1
			if m[1] != "" {
				if n, err := strconv.Atoi(m[1]); err == nil {
					id = n
				}
			}
			current = &domain.Scene{ID: id}
			continue
		}

		if current == nil {
			if m := TitleRegex.FindStringSubmatch(trimmed); m != nil {
				script.Title = strings.TrimSpace(m[1])
			}
			continue
		}

		m := FieldRegex.FindStringSubmatch(trimmed)
		if m == nil {
			// フィールド形式でない行は説明文の続きとして扱うのだ
			current.Description = strings.TrimSpace(current.Description + " " + trimmed)
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(m[1])), " ", "_")
		val := strings.TrimSpace(m[2])
		switch key {
		case fieldKeyDescription, fieldKeyAction:
			current.Description = val
		case fieldKeyCamera, fieldKeyCameraMove:
			current.CameraMovement = val
		default:
			slog.Debug("Markdown内に未知のフィールドキーが見つかりました", "key", key)
		}
	}
	addPrevious()

	if len(script.Scenes) == 0 {
		return nil, fmt.Errorf("%w: 有効なシーン情報が見つかりませんでした", ErrNoScenes)
	}
	return script, nil
}

// hasContent はシーンに有効な情報が含まれているか判定します。
func hasContent(sc *domain.Scene) bool {
	return sc.Description != "" || sc.CameraMovement != ""
}
