package publisher

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"sync"

	// 生成画像のデコード用
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	panelJPEGQuality  = 90
	panelMargin       = 40
	panelCornerRadius = 20
	panelTextInset    = 40
	descriptionLimit  = 100
)

var (
	overlayFill   = color.NRGBA{R: 17, G: 24, B: 39, A: 217}
	overlayStroke = color.NRGBA{R: 55, G: 65, B: 81, A: 128}
	titleColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	descColor     = color.NRGBA{R: 209, G: 213, B: 219, A: 255}
	cameraColor   = color.NRGBA{R: 239, G: 68, B: 68, A: 255}
)

type panelFonts struct {
	bold, regular, mono *opentype.Font
}

var loadPanelFonts = sync.OnceValues(func() (panelFonts, error) {
	var f panelFonts
	var err error
	if f.bold, err = opentype.Parse(gobold.TTF); err != nil {
		return f, fmt.Errorf("bold フォントの解析に失敗: %w", err)
	}
	if f.regular, err = opentype.Parse(goregular.TTF); err != nil {
		return f, fmt.Errorf("regular フォントの解析に失敗: %w", err)
	}
	if f.mono, err = opentype.Parse(gomonobold.TTF); err != nil {
		return f, fmt.Errorf("mono フォントの解析に失敗: %w", err)
	}
	return f, nil
})

// textSizes はアスペクト比ごとの文字サイズ (px) なのだ。正方形だけ小さくするのだ。
func textSizes(aspect domain.AspectRatio) (title, desc, meta float64) {
	if aspect == domain.AspectSquare {
		return 30, 24, 22
	}
	return 40, 32, 28
}

// BuildPanel は1シーンの画像にキャプションを重ねた JPEG を生成します。
// キャンバスはアスペクト比ごとの規定サイズで、画像はそこに引き伸ばして描くのだ。
func BuildPanel(scene domain.Scene, img domain.ImagePayload, aspect domain.AspectRatio) ([]byte, error) {
	if img.IsEmpty() {
		return nil, fmt.Errorf("scene %d: 画像データがありません", scene.ID)
	}
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("scene %d: 画像のデコードに失敗しました: %w", scene.ID, err)
	}
	fonts, err := loadPanelFonts()
	if err != nil {
		return nil, err
	}

	w, h := aspect.CanvasSize()
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), src, src.Bounds(), draw.Src, nil)

	boxH := int(math.Round(float64(h) * 0.25))
	box := image.Rect(panelMargin, h-boxH-panelMargin, w-panelMargin, h-panelMargin)
	outer := roundedRect{r: box, radius: panelCornerRadius}
	inner := roundedRect{r: box.Inset(1), radius: panelCornerRadius - 1}
	draw.DrawMask(canvas, box, image.NewUniform(overlayFill), image.Point{}, inner, box.Min, draw.Over)
	draw.DrawMask(canvas, box, image.NewUniform(overlayStroke), image.Point{}, ring{outer: outer, inner: inner}, box.Min, draw.Over)

	titleSize, descSize, metaSize := textSizes(aspect)
	textX := box.Min.X + panelTextInset
	maxWidth := box.Dx() - panelTextInset*2

	lines := []struct {
		font  *opentype.Font
		size  float64
		color color.Color
		text  string
		y     int
	}{
		{fonts.bold, titleSize, titleColor, fmt.Sprintf("SCENE %d", scene.ID), box.Min.Y + 60},
		{fonts.regular, descSize, descColor, truncateRunes(scene.Description, descriptionLimit), box.Min.Y + 120},
		{fonts.mono, metaSize, cameraColor, "CAM: " + scene.CameraMovement, box.Max.Y - 40},
	}
	for _, l := range lines {
		face, err := opentype.NewFace(l.font, &opentype.FaceOptions{Size: l.size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return nil, fmt.Errorf("フォントフェイスの生成に失敗しました: %w", err)
		}
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(l.color),
			Face: face,
			Dot:  fixed.P(textX, l.y),
		}
		d.DrawString(fitText(d, l.text, maxWidth))
		face.Close()
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: panelJPEGQuality}); err != nil {
		return nil, fmt.Errorf("JPEG エンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// truncateRunes は limit 文字を超える文字列を切り詰めて "..." を付けるのだ。
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// fitText はボックス幅に収まるまで末尾を削るのだ。
func fitText(d *font.Drawer, s string, maxWidth int) string {
	limit := fixed.I(maxWidth)
	if d.MeasureString(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		candidate := string(r) + "..."
		if d.MeasureString(candidate) <= limit {
			return candidate
		}
	}
	return ""
}

// roundedRect は角丸矩形のアルファマスクなのだ。
type roundedRect struct {
	r      image.Rectangle
	radius int
}

func (rr roundedRect) ColorModel() color.Model { return color.AlphaModel }
func (rr roundedRect) Bounds() image.Rectangle { return rr.r }

func (rr roundedRect) At(x, y int) color.Color {
	if rr.contains(x, y) {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

func (rr roundedRect) contains(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(rr.r) {
		return false
	}
	rad := float64(rr.radius)
	if rad <= 0 {
		return true
	}
	px, py := float64(x)+0.5, float64(y)+0.5
	minX, minY := float64(rr.r.Min.X)+rad, float64(rr.r.Min.Y)+rad
	maxX, maxY := float64(rr.r.Max.X)-rad, float64(rr.r.Max.Y)-rad

	cx := math.Max(minX, math.Min(px, maxX))
	cy := math.Max(minY, math.Min(py, maxY))
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= rad*rad
}

// ring は outer の内側かつ inner の外側、つまり枠線部分のマスクです。
type ring struct {
	outer, inner roundedRect
}

func (r ring) ColorModel() color.Model { return color.AlphaModel }
func (r ring) Bounds() image.Rectangle { return r.outer.r }

func (r ring) At(x, y int) color.Color {
	if r.outer.contains(x, y) && !r.inner.contains(x, y) {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
