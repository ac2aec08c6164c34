package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Scene は絵コンテの1コマ分の構成（説明文とカメラワーク）を保持します。
// ID は 1 始まりの連番で、以降のすべての処理でキーとして扱うのだ。
type Scene struct {
	ID             int    `json:"id"`
	Description    string `json:"description"`
	CameraMovement string `json:"camera_movement"`
}

// Scenes はシーンの並びに対するヘルパーを提供します。
type Scenes []Scene

// SortByID は ID の昇順に並べ替えたコピーを返すのだ。元のスライスは変更しないのだよ。
func (s Scenes) SortByID() Scenes {
	sorted := slices.Clone(s)
	slices.SortStableFunc(sorted, func(a, b Scene) int {
		return a.ID - b.ID
	})
	return sorted
}

// IDs はシーン ID を並び順のまま返します。
func (s Scenes) IDs() []int {
	ids := make([]int, 0, len(s))
	for _, sc := range s {
		ids = append(ids, sc.ID)
	}
	return ids
}

// SceneImageMap はシーン ID から生成画像への疎なマッピングなのだ。
// 生成に失敗したシーンはキー自体が存在しないのだ。
type SceneImageMap map[int]ImagePayload

// Has は指定シーンの画像が存在するかを返します。
func (m SceneImageMap) Has(id int) bool {
	img, ok := m[id]
	return ok && len(img.Data) > 0
}

// SortedIDs は画像を持つシーン ID を昇順で返すのだ。
func (m SceneImageMap) SortedIDs() []int {
	ids := make([]int, 0, len(m))
	for id, img := range m {
		if len(img.Data) == 0 {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AspectRatio はフレームのアスペクト比です。
type AspectRatio string

const (
	AspectWide     AspectRatio = "16:9"
	AspectVertical AspectRatio = "9:16"
	AspectSquare   AspectRatio = "1:1"
)

// ParseAspectRatio は文字列からアスペクト比を解決するのだ。空文字は 16:9 扱いなのだ。
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(s)) {
	case "", AspectWide:
		return AspectWide, nil
	case AspectVertical:
		return AspectVertical, nil
	case AspectSquare:
		return AspectSquare, nil
	}
	return "", fmt.Errorf("%w: unsupported aspect ratio %q", ErrInvalidRequest, s)
}

// Label はプロンプトに埋め込むフォーマット表記を返します。
func (a AspectRatio) Label() string {
	switch a {
	case AspectWide:
		return "Cinematic 16:9 Widescreen"
	case AspectVertical:
		return "Vertical 9:16 Social Media"
	default:
		return "Square 1:1 Format"
	}
}

// CanvasSize は書き出し用キャンバスのピクセルサイズなのだ。
func (a AspectRatio) CanvasSize() (width, height int) {
	switch a {
	case AspectWide:
		return 1920, 1080
	case AspectVertical:
		return 1080, 1920
	default:
		return 1080, 1080
	}
}

// SceneCount は分解するシーン数の指定です。0 は AI に任せる "auto" を表します。
type SceneCount int

const (
	SceneCountAuto SceneCount = 0
	MinSceneCount  SceneCount = 3
	MaxSceneCount  SceneCount = 10

	// auto 指定時に期待するシーン数の範囲なのだ
	AutoSceneMin = 4
	AutoSceneMax = 8
)

// ParseSceneCount は "auto" または 3〜10 の整数を受け付けるのだ。
func ParseSceneCount(s string) (SceneCount, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "auto" {
		return SceneCountAuto, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: scene count must be 'auto' or a number: %q", ErrInvalidRequest, s)
	}
	c := SceneCount(n)
	if c < MinSceneCount || c > MaxSceneCount {
		return 0, fmt.Errorf("%w: scene count must be between %d and %d", ErrInvalidRequest, MinSceneCount, MaxSceneCount)
	}
	return c, nil
}

// IsAuto は AI にシーン数を委ねるかどうかを返します。
func (c SceneCount) IsAuto() bool { return c == SceneCountAuto }

func (c SceneCount) String() string {
	if c.IsAuto() {
		return "auto"
	}
	return strconv.Itoa(int(c))
}
