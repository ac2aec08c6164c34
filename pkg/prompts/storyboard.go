package prompts

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// VisualConsistency は全フレーム共通のスタイル指示なのだ。
const VisualConsistency = "Unified Cinematic Style: Shot on 35mm film, master lighting, consistent color grading, hyper-realistic details. NO TEXT, NO WATERMARKS, NO TITLES."

// ReferenceInstruction は参照画像を添付したときだけ末尾に付ける指示です。
const ReferenceInstruction = "STRICT INSTRUCTION: Maintain exact character likeness from the reference image."

// CountInstruction はシーン数指定を分解プロンプト用の一文に変換するのだ。
func CountInstruction(c domain.SceneCount) string {
	if c.IsAuto() {
		return fmt.Sprintf("Break this down into a logical number of scenes (approx %d-%d).", domain.AutoSceneMin, domain.AutoSceneMax)
	}
	return fmt.Sprintf("Break this down into EXACTLY %d scenes.", int(c))
}

// Decomposition は脚本をシーン配列に分解させるプロンプトを組み立てます。
func (b *Builder) Decomposition(script string, count domain.SceneCount) (string, error) {
	return b.Build(TemplateDecompose, TemplateData{
		InputText:        script,
		CountInstruction: CountInstruction(count),
	})
}

// OptimizeScript は脚本を推敲させるプロンプトなのだ。
func (b *Builder) OptimizeScript(raw string) (string, error) {
	return b.Build(TemplateOptimize, TemplateData{InputText: raw})
}

// SceneFrame は1シーン分の画像生成プロンプトを返すのだ。
func SceneFrame(scene domain.Scene, aspect domain.AspectRatio, withReference bool) string {
	p := fmt.Sprintf("Storyboard Frame %d. Scene: %s. Camera Action: %s. Aspect: %s. %s.",
		scene.ID, scene.Description, scene.CameraMovement, aspect.Label(), VisualConsistency)
	if withReference {
		p += " " + ReferenceInstruction
	}
	return p
}
