package prompts

import (
	"embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	promptkit "github.com/shouni/go-prompt-kit/prompts"
	"github.com/shouni/go-prompt-kit/resource"
)

//go:embed templates/*.md
var templateFS embed.FS

// Builder は埋め込みテンプレートからテキストプロンプトを組み立てるのだ。
// テンプレートの解析と実行は go-prompt-kit に任せ、ここでは名前の一覧と整形だけを持つのだ。
type Builder struct {
	kit   *promptkit.Builder
	names []string
}

// NewBuilder は templates/ 以下のすべてのテンプレートを解析して Builder を初期化します。
func NewBuilder() (*Builder, error) {
	templates, err := resource.Load(templateFS, "templates", "")
	if err != nil {
		return nil, fmt.Errorf("テンプレートの読み込みに失敗しました: %w", err)
	}
	for name, content := range templates {
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' の内容が空なのだ", name)
		}
	}

	kit, err := promptkit.NewBuilder(templates)
	if err != nil {
		return nil, err
	}
	return &Builder{kit: kit, names: slices.Sorted(maps.Keys(templates))}, nil
}

// MustNewBuilder は埋め込みテンプレートが壊れている場合に panic します。
func MustNewBuilder() *Builder {
	b, err := NewBuilder()
	if err != nil {
		panic(err)
	}
	return b
}

// Build は指定されたテンプレートを実行します。
func (b *Builder) Build(name string, data TemplateData) (string, error) {
	if !slices.Contains(b.names, name) {
		return "", fmt.Errorf("不明なテンプレートです: '%s' (利用可能: %s)", name, strings.Join(b.names, ", "))
	}
	out, err := b.kit.Build(name, data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Names は登録されているテンプレート名をソートして返すのだ。
func (b *Builder) Names() []string {
	return slices.Clone(b.names)
}
