package prompts

import "github.com/shouni/go-storyboard-kit/pkg/domain"

// ScriptPrompt は、テンプレートからテキストプロンプトを構築する契約です。
type ScriptPrompt interface {
	// Build は、指定されたテンプレート名（例: "decompose", "swot"）とデータに基づいてプロンプト文字列を生成します。
	Build(name string, data TemplateData) (string, error)
}

// StoryboardPrompt は、絵コンテパイプラインが必要とするプロンプトの契約です。
type StoryboardPrompt interface {
	// Decomposition は脚本をシーン配列に分解させるプロンプトを生成します。
	Decomposition(script string, count domain.SceneCount) (string, error)
	// SceneFrame は1シーン分の画像生成プロンプトを生成します。
	SceneFrame(scene domain.Scene, aspect domain.AspectRatio, withReference bool) string
}

var (
	_ ScriptPrompt     = (*Builder)(nil)
	_ StoryboardPrompt = (*Builder)(nil)
)

// SceneFrame は StoryboardPrompt を満たすためのメソッド版なのだ。
func (b *Builder) SceneFrame(scene domain.Scene, aspect domain.AspectRatio, withReference bool) string {
	return SceneFrame(scene, aspect, withReference)
}
