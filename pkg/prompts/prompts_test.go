package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func TestNewBuilder_LoadsAllTemplates(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	want := []string{
		TemplateBrandIdentity, TemplateCinematic, TemplateDecompose, TemplateLogo,
		TemplateMarketing, TemplateNovel, TemplateOptimize, TemplateSWOT,
	}
	assert.ElementsMatch(t, want, b.Names())

	t.Run("一覧を書き換えても Builder には影響しない", func(t *testing.T) {
		names := b.Names()
		names[0] = "broken"
		assert.NotContains(t, b.Names(), "broken")
		_, err := b.Build(TemplateSWOT, TemplateData{Name: "coffee", Description: "beans"})
		assert.NoError(t, err)
	})
}

func TestBuild_UnknownTemplate(t *testing.T) {
	b := MustNewBuilder()
	_, err := b.Build("no-such-template", TemplateData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-template")
}

func TestDecomposition(t *testing.T) {
	b := MustNewBuilder()

	t.Run("明示的なシーン数", func(t *testing.T) {
		p, err := b.Decomposition("A hero walks into the desert.", 4)
		require.NoError(t, err)
		assert.Contains(t, p, "Break this down into EXACTLY 4 scenes.")
		assert.Contains(t, p, "Script: A hero walks into the desert.")
		assert.Contains(t, p, "JSON ARRAY")
	})

	t.Run("auto は 4-8 の目安を指示する", func(t *testing.T) {
		p, err := b.Decomposition("script", domain.SceneCountAuto)
		require.NoError(t, err)
		assert.Contains(t, p, "(approx 4-8)")
	})
}

func TestSceneFrame(t *testing.T) {
	sc := domain.Scene{ID: 2, Description: "Sunset over dunes", CameraMovement: "Slow dolly in"}

	plain := SceneFrame(sc, domain.AspectVertical, false)
	assert.True(t, strings.HasPrefix(plain, "Storyboard Frame 2. Scene: Sunset over dunes. Camera Action: Slow dolly in. Aspect: Vertical 9:16 Social Media."))
	assert.Contains(t, plain, VisualConsistency)
	assert.NotContains(t, plain, ReferenceInstruction)

	withRef := SceneFrame(sc, domain.AspectWide, true)
	assert.Contains(t, withRef, "Cinematic 16:9 Widescreen")
	assert.True(t, strings.HasSuffix(withRef, ReferenceInstruction))
}

func TestRestoration(t *testing.T) {
	tests := []struct {
		name        string
		mode        RestoreMode
		style       ColorStyle
		instruction string
		contains    string
		wantErr     bool
	}{
		{name: "修復", mode: RestoreModeRestore, contains: "Restore this old photograph."},
		{name: "カラー化の既定は realistic", mode: RestoreModeColorize, contains: "historically accurate colors"},
		{name: "カラー化 vintage", mode: RestoreModeColorize, style: ColorVintage, contains: "1970s photography"},
		{name: "高画質化", mode: RestoreModeEnhance, contains: "high-definition"},
		{name: "マジック編集", mode: RestoreModeObjectEdit, instruction: "remove the lamp", contains: "Nano Banana capabilities: remove the lamp."},
		{name: "マジック編集は指示が必須", mode: RestoreModeObjectEdit, wantErr: true},
		{name: "不明なスタイル", mode: RestoreModeColorize, style: "neon", wantErr: true},
		{name: "不明なモード", mode: "sharpen", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Restoration(tt.mode, tt.style, tt.instruction)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, p, tt.contains)
		})
	}
}

func TestAngleChange(t *testing.T) {
	p, err := AngleChange(Angle{Preset: "low_angle"})
	require.NoError(t, err)
	assert.Contains(t, p, "Change the camera view to be: From a low angle, looking up.")

	p, err = AngleChange(Angle{Preset: AngleCustom, X: -30, Y: 15})
	require.NoError(t, err)
	assert.Contains(t, p, "Rotate the perspective/camera angle: 30 degrees to the left and 15 degrees from top.")

	_, err = AngleChange(Angle{Preset: "upside_down"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	assert.Contains(t, AnglePresets(), "dutch_angle")
}

func TestProductPhoto(t *testing.T) {
	p := ProductPhoto("marble countertop", domain.AspectVertical, false)
	assert.Contains(t, p, `environment: "marble countertop"`)
	assert.Contains(t, p, "Format: Vertical 9:16 Social Story aspect ratio.")
	assert.NotContains(t, p, "LOGO INTEGRATION")

	withLogo := ProductPhoto("beach", domain.AspectSquare, true)
	assert.Contains(t, withLogo, "Square 1:1")
	assert.Contains(t, withLogo, "LOGO INTEGRATION")
}

func TestBrandMockup(t *testing.T) {
	p := BrandMockup("Coffee Cup", MaterialGoldFoil, Contact{Name: "Acme", Website: "acme.test"})
	assert.Contains(t, p, "Render a photorealistic Coffee Cup")
	assert.Contains(t, p, "GOLD FOIL")
	assert.Contains(t, p, `Website: "acme.test"`)

	assert.Contains(t, BrandMockup("Tote Bag", MaterialOriginal, Contact{}), "Maintain the original logo colors")
}

func TestLogo(t *testing.T) {
	b := MustNewBuilder()

	p, err := b.Logo("a fox", "Line Art", LogoCircle)
	require.NoError(t, err)
	assert.Contains(t, p, "Concept: a fox.")
	assert.Contains(t, p, "Style: Line Art.")
	assert.Contains(t, p, "circular emblem")

	p, err = b.Logo("a fox", "Line Art", LogoSquare)
	require.NoError(t, err)
	assert.Contains(t, p, "balanced square composition")
}

func TestTextTools(t *testing.T) {
	b := MustNewBuilder()

	p, err := b.SWOT("Acme", "Rocket skates")
	require.NoError(t, err)
	assert.Contains(t, p, "Name: Acme")
	assert.Contains(t, p, `"strengths"`)

	p, err = b.MarketingStrategy("Skates", "Coyotes", "Sales")
	require.NoError(t, err)
	assert.Contains(t, p, "Target Audience: Coyotes")

	p, err = b.Novel("Noir", "A heist", "Sam")
	require.NoError(t, err)
	assert.Contains(t, p, "Genre/Style: Noir")

	p, err = b.CinematicScript("Once upon a time")
	require.NoError(t, err)
	assert.Contains(t, p, "Story: Once upon a time")

	p, err = b.BrandIdentity("Acme")
	require.NoError(t, err)
	assert.Contains(t, p, `company "Acme"`)

	p, err = b.OptimizeScript("draft")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "Script: draft"))
}

func TestSimplePrompts(t *testing.T) {
	assert.Contains(t, GroupComposition(3, "at a picnic", true), "I have provided 3 reference images of distinct individuals.")
	assert.Contains(t, GroupComposition(2, "at a picnic", false), "Create a digital art composition.")
	assert.Contains(t, GenerateMe("riding a dragon"), "riding a dragon")
	assert.Contains(t, CGI("a glass bottle", "Isometric 3D"), "Style: Isometric 3D. Description: a glass bottle.")
	assert.Contains(t, FaceClone, "Image 2")
	assert.Contains(t, AnalyzeImage, "recreate it")
}
