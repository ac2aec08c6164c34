package prompts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// RestoreMode は写真修復ツールの処理モードなのだ。
type RestoreMode string

const (
	RestoreModeRestore    RestoreMode = "restore"
	RestoreModeColorize   RestoreMode = "colorize"
	RestoreModeEnhance    RestoreMode = "enhance"
	RestoreModeObjectEdit RestoreMode = "object-edit"
)

// ColorStyle はカラー化のスタイルです。
type ColorStyle string

const (
	ColorRealistic ColorStyle = "realistic"
	ColorVintage   ColorStyle = "vintage"
	ColorVibrant   ColorStyle = "vibrant"
	ColorPastel    ColorStyle = "pastel"
	ColorDramatic  ColorStyle = "dramatic"
)

var colorStyleSuffix = map[ColorStyle]string{
	ColorRealistic: "Use strictly realistic colors, natural skin tones, and historically accurate colors.",
	ColorVintage:   "Use a warm, slightly muted, nostalgic palette reminiscent of 1970s photography.",
	ColorVibrant:   "Use highly saturated, vibrant colors with high contrast for a modern cinematic look.",
	ColorPastel:    "Use a soft, dreamy, pastel color palette with low contrast.",
	ColorDramatic:  "Use deep, moody lighting with strong shadows and rich colors.",
}

// Restoration は写真修復系プロンプトを組み立てるのだ。
// object-edit の場合は instruction が必須なのだ。
func Restoration(mode RestoreMode, style ColorStyle, instruction string) (string, error) {
	switch mode {
	case RestoreModeRestore:
		return "Restore this old photograph. Remove scratches, tears, dust, and noise. Fix the damage and make it look like a high-quality new photo while preserving the original content.", nil
	case RestoreModeColorize:
		if style == "" {
			style = ColorRealistic
		}
		suffix, ok := colorStyleSuffix[style]
		if !ok {
			return "", fmt.Errorf("%w: unknown color style %q", domain.ErrInvalidRequest, style)
		}
		return "Colorize this black and white image. " + suffix, nil
	case RestoreModeEnhance:
		return "Enhance this image. Sharpen details, improve lighting and contrast, and increase perceived resolution. Make it look high-definition.", nil
	case RestoreModeObjectEdit:
		if strings.TrimSpace(instruction) == "" {
			return "", fmt.Errorf("%w: object-edit requires an instruction", domain.ErrInvalidRequest)
		}
		return fmt.Sprintf("Edit this image using Nano Banana capabilities: %s. Maintain the style and lighting of the original image.", instruction), nil
	}
	return "", fmt.Errorf("%w: unknown restore mode %q", domain.ErrInvalidRequest, mode)
}

// AngleCustom はプリセットではなく角度を直接指定するときのキーです。
const AngleCustom = "custom"

var anglePresets = map[string]string{
	"low_angle":   "From a low angle, looking up",
	"high_angle":  "From a high angle, looking down (bird's eye view)",
	"left_side":   "From the direct left side",
	"right_side":  "From the direct right side",
	"dramatic_45": "From a dramatic 45-degree angle",
	"closeup":     "Close-up shot",
	"wide_angle":  "Wide-angle shot",
	"dutch_angle": "Dutch angle (tilted)",
}

// AnglePresets は利用可能なプリセット名を返すのだ。
func AnglePresets() []string {
	names := make([]string, 0, len(anglePresets))
	for k := range anglePresets {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Angle はカメラアングル変更の指定なのだ。Preset が custom のときは X/Y (度) を使うのだ。
type Angle struct {
	Preset string
	X      int
	Y      int
}

// AngleChange は視点変更プロンプトを返します。
func AngleChange(a Angle) (string, error) {
	var instruction string
	if a.Preset == AngleCustom {
		horizontal := fmt.Sprintf("%d degrees to the left", abs(a.X))
		if a.X > 0 {
			horizontal = fmt.Sprintf("%d degrees to the right", a.X)
		}
		vertical := fmt.Sprintf("%d degrees from bottom", abs(a.Y))
		if a.Y > 0 {
			vertical = fmt.Sprintf("%d degrees from top", a.Y)
		}
		instruction = fmt.Sprintf("Rotate the perspective/camera angle: %s and %s.", horizontal, vertical)
	} else {
		label, ok := anglePresets[a.Preset]
		if !ok {
			return "", fmt.Errorf("%w: unknown angle preset %q", domain.ErrInvalidRequest, a.Preset)
		}
		instruction = fmt.Sprintf("Change the camera view to be: %s.", label)
	}
	return fmt.Sprintf("Generate a new view of this image. %s Maintain the original subject identity, style, and background context as much as possible. The output must be a high-quality image.", instruction), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// GroupComposition は複数人物の合成プロンプトなのだ。
// realistic が true なら顔の同一性を厳密に保つ指示になるのだ。
func GroupComposition(people int, scene string, realistic bool) string {
	if realistic {
		return fmt.Sprintf(`Perform a high-fidelity image composition using Nano Banana capability (Gemini 2.5 Flash Image).

INPUTS:
I have provided %d reference images of distinct individuals.

SCENE DESCRIPTION:
%s

CRITICAL INSTRUCTIONS (IDENTITY PRESERVATION):
1. PRESERVE FACIAL FEATURES: You MUST strictly maintain the facial identity, bone structure, and likeness of each person from the reference images. They must be instantly recognizable.
2. INTEGRATION: Place these specific people into the described scene naturally.
3. REALISM: Ensure lighting, shadows, and skin textures are photorealistic and consistent with the scene.
4. STYLE: Follow the Nano Banana optimization for realistic human rendering.`, people, scene)
	}
	return fmt.Sprintf(`Create a digital art composition.
INPUTS: I have provided %d reference images.
SCENE: %s
TASK: Generate a cinematic image featuring characters inspired by these images in this scene. Focus on composition and style.`, people, scene)
}

// FaceClone は1枚目を背景・ポーズ、2枚目を顔として合成させるプロンプトです。
const FaceClone = `Perform a high-fidelity Face Swap and Context Transfer.

INPUTS:
- Image 1 (First input provided): THE CONTEXT REFERENCE. Use this image's exact background, scenery, body pose, clothing, and lighting.
- Image 2 (Second input provided): THE SUBJECT IDENTITY. Use this person's exact facial identity (eyes, nose, mouth, unique features).

TASK:
Generate a photorealistic image where the person from Image 2 is wearing the clothes and standing in the exact environment of Image 1.

STRICT REQUIREMENTS:
1. PRESERVE CONTEXT: The background, clothes, lighting, and pose MUST match Image 1 exactly.
2. PRESERVE IDENTITY: The face MUST be clearly recognizable as the person in Image 2.
3. SEAMLESS BLENDING: Blend the skin tones and lighting of the face from Image 2 naturally into the body/environment of Image 1.
4. OUTPUT QUALITY: The result must be a realistic photograph.`

// GenerateMe は入力人物に似たキャラクターを場面に配置させるのだ。
func GenerateMe(scene string) string {
	return fmt.Sprintf(`Create a cinematic, artistic image of a character based on the input photo.

SCENE / ACTION:
%s

INSTRUCTIONS:
- Place a character resembling the input person into this scene.
- Focus on high-quality artistic composition, lighting, and mood.
- Ensure the character fits naturally into the environment.`, scene)
}

// AnalyzeImage は画像から再現用プロンプトを抽出させるテキストなのだ。
const AnalyzeImage = "Analyze this image deeply. Describe the subject, lighting, colors, style, and composition in a way that can be used as a prompt to recreate it. LANGUAGE RULE: If the image contains Arabic text or elements, describe in Arabic. Otherwise, default to English."

// productAspectLabel は商品写真用のフォーマット表記です。絵コンテ用とは文言が違うのだ。
func productAspectLabel(a domain.AspectRatio) string {
	switch a {
	case domain.AspectWide:
		return "Wide 16:9 Cinematic"
	case domain.AspectVertical:
		return "Vertical 9:16 Social Story"
	default:
		return "Square 1:1"
	}
}

// ProductPhoto は商品を指定の環境に配置するプロンプトを返します。
// withLogo の場合は2枚目の画像をロゴとして合成する指示を追加するのだ。
func ProductPhoto(setting string, aspect domain.AspectRatio, withLogo bool) string {
	p := fmt.Sprintf(`Professional Product Photography Editing.
Task: Place the product from the input image into this environment: "%s".
Format: %s aspect ratio.
Instructions:
- Retain the product's identity, texture, and details exactly.
- Integrate realistic shadows, reflections, and professional studio lighting.
- Ensure high-end commercial quality.`, setting, productAspectLabel(aspect))
	if withLogo {
		p += `
- LOGO INTEGRATION: I have provided a second image which is a LOGO.
- Remove the background of the logo if it exists (make it transparent).
- Place the logo naturally onto the product packaging OR seamlessly in the background (e.g. as a 3D element or neon sign) depending on what fits best.
- Blend the logo perspective to match the product.`
	}
	return p
}

// Material はモックアップでのロゴの質感なのだ。
type Material string

const (
	MaterialOriginal   Material = "Original"
	MaterialGoldFoil   Material = "Gold Foil"
	MaterialSilverFoil Material = "Silver Foil"
	MaterialMatteWhite Material = "Matte White"
	MaterialDebossed   Material = "Debossed"
)

// MockupItems はモックアップ対象の定番アイテムです。任意の文字列も受け付けます。
var MockupItems = []string{
	"Business Card", "Stationery", "Coffee Cup", "Tote Bag",
	"Billboard", "Laptop", "Storefront", "Packaging",
}

func materialInstruction(m Material) string {
	switch m {
	case MaterialGoldFoil:
		return "RENDER THE LOGO AS LUXURIOUS GOLD FOIL STAMPED ON THE SURFACE. It must catch the light, be metallic, and have high contrast."
	case MaterialSilverFoil:
		return "RENDER THE LOGO AS METALLIC SILVER EMBOSSING. It should look 3D and shiny."
	case MaterialMatteWhite:
		return "RENDER THE LOGO IN PURE MATTE WHITE INK. This is essential for visibility on dark backgrounds. Ignore original colors, make it white."
	case MaterialDebossed:
		return "RENDER THE LOGO AS DEBOSSED (PRESSED INWARDS) into the material. No ink, just texture and shadow."
	default:
		return "Maintain the original logo colors and opacity."
	}
}

// Contact はモックアップに印字する連絡先なのだ。
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Website string `json:"website"`
}

// BrandMockup はロゴを使ったモックアップ生成プロンプトを返します。
func BrandMockup(item string, material Material, contact Contact) string {
	contactInfo := fmt.Sprintf(`Include the following contact details on the item text area naturally if applicable:
Name: %q
Phone: %q
Address: %q
Website: %q`, contact.Name, contact.Phone, contact.Address, contact.Website)

	return fmt.Sprintf(`High-Fidelity Product Mockup Generation.
TASK: Render a photorealistic %s featuring the provided logo.
RULES: 1. %s 2. The logo must be sharp. 3. DO NOT distort geometry.
CONTEXT: Professional cinematic lighting. %s`, item, materialInstruction(material), contactInfo)
}

// LogoShape はロゴの外形です。
type LogoShape string

const (
	LogoSquare LogoShape = "square"
	LogoCircle LogoShape = "circle"
)

// Logo はベクター風ロゴの生成プロンプトを組み立てるのだ。
func (b *Builder) Logo(concept, style string, shape LogoShape) (string, error) {
	shapeInstruction := "Shape: The logo MUST be designed as a balanced square composition."
	if shape == LogoCircle {
		shapeInstruction = "Shape: The logo MUST be designed as a circular emblem/badge. All graphics must be contained within a circle."
	}
	return b.Build(TemplateLogo, TemplateData{
		InputText:        concept,
		Style:            style,
		ShapeInstruction: shapeInstruction,
	})
}

// CGI は 3DCG レンダリング風の画像プロンプトなのだ。
func CGI(description, style string) string {
	return fmt.Sprintf("Generate a High-End CGI Render. Style: %s. Description: %s. Quality: 8k, Octane Render, Ray Tracing, Hyper-realistic, Cinematic Lighting.", style, description)
}
