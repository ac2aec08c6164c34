// Package tools はクリエイティブツール群なのだ。
// 各ツールは入力を検証し、プロンプトを組み立てて、生成バックエンドを1回呼ぶだけなのだ。
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

const (
	DefaultLogoStyle = "Minimalist Vector"
	DefaultCGIStyle  = "Photorealistic 3D"
)

// Gateway は生成バックエンドの入り口なのだ。gemini.Client がこれを満たすのだ。
type Gateway interface {
	GenerateImage(ctx context.Context, req gemini.ImageRequest) (domain.ImagePayload, error)
	GenerateText(ctx context.Context, prompt string, images ...domain.ImagePayload) (string, error)
	GenerateJSON(ctx context.Context, prompt string, v any, images ...domain.ImagePayload) error
}

// Studio は全ツールをまとめたものです。並行利用しても安全なのだ。
type Studio struct {
	gw      Gateway
	prompts *prompts.Builder
}

// NewStudio は Studio を生成します。
func NewStudio(gw Gateway, pb *prompts.Builder) *Studio {
	return &Studio{gw: gw, prompts: pb}
}

// --- 写真ツール ---

// RestorePhoto は古い写真の修復・カラー化・高画質化・部分編集を行うのだ。
func (s *Studio) RestorePhoto(ctx context.Context, req RestoreRequest) (domain.ImagePayload, error) {
	if err := validate(req, req.Image); err != nil {
		return domain.ImagePayload{}, err
	}
	prompt, err := prompts.Restoration(req.Mode, req.ColorStyle, req.Instruction)
	if err != nil {
		return domain.ImagePayload{}, err
	}
	return s.image(ctx, "restore", gemini.ImageRequest{Prompt: prompt, Images: []domain.ImagePayload{req.Image}})
}

// ChangeAngle は同じ被写体を別の視点から描き直すのだ。
func (s *Studio) ChangeAngle(ctx context.Context, req AngleRequest) (domain.ImagePayload, error) {
	if err := validate(req, req.Image); err != nil {
		return domain.ImagePayload{}, err
	}
	prompt, err := prompts.AngleChange(prompts.Angle{Preset: req.Preset, X: req.X, Y: req.Y})
	if err != nil {
		return domain.ImagePayload{}, err
	}
	return s.image(ctx, "angle", gemini.ImageRequest{Prompt: prompt, Images: []domain.ImagePayload{req.Image}})
}

// ComposeGroup は複数人物の写真を1つの場面に合成します。
func (s *Studio) ComposeGroup(ctx context.Context, req GroupRequest) (domain.ImagePayload, error) {
	if err := validate(req, req.People...); err != nil {
		return domain.ImagePayload{}, err
	}
	prompt := prompts.GroupComposition(len(req.People), req.Scene, req.Realistic)
	return s.image(ctx, "group", gemini.ImageRequest{Prompt: prompt, Images: req.People})
}

// ClonePerson は Reference の背景とポーズに Face の顔を合成するのだ。画像の順番が意味を持つのだ。
func (s *Studio) ClonePerson(ctx context.Context, req CloneRequest) (domain.ImagePayload, error) {
	if err := validate(req, req.Reference, req.Face); err != nil {
		return domain.ImagePayload{}, err
	}
	return s.image(ctx, "clone", gemini.ImageRequest{
		Prompt: prompts.FaceClone,
		Images: []domain.ImagePayload{req.Reference, req.Face},
	})
}

// GenerateMe は入力人物に似たキャラクターを指定の場面に登場させます。
func (s *Studio) GenerateMe(ctx context.Context, req GenerateMeRequest) (domain.ImagePayload, error) {
	if err := validate(req, req.Photo); err != nil {
		return domain.ImagePayload{}, err
	}
	return s.image(ctx, "me", gemini.ImageRequest{
		Prompt: prompts.GenerateMe(req.Scene),
		Images: []domain.ImagePayload{req.Photo},
	})
}

// ExtractPrompt は画像を解析して、再現用のプロンプト文を返すのだ。
func (s *Studio) ExtractPrompt(ctx context.Context, img domain.ImagePayload) (string, error) {
	if err := requireImages(img); err != nil {
		return "", err
	}
	return s.gw.GenerateText(ctx, prompts.AnalyzeImage, img)
}

// --- 広告・ブランドツール ---

// ProductPhoto は商品画像を指定の環境に配置します。ロゴがあれば2枚目として合成するのだ。
func (s *Studio) ProductPhoto(ctx context.Context, req ProductRequest) (domain.ImagePayload, error) {
	if err := validate(req, req.Product); err != nil {
		return domain.ImagePayload{}, err
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = domain.AspectSquare
	}

	images := []domain.ImagePayload{req.Product}
	withLogo := req.Logo != nil && !req.Logo.IsEmpty()
	if withLogo {
		images = append(images, *req.Logo)
	}
	return s.image(ctx, "product", gemini.ImageRequest{
		Prompt:      prompts.ProductPhoto(req.Setting, aspect, withLogo),
		Images:      images,
		AspectRatio: aspect,
	})
}

// BrandMockup はロゴを使った名刺やカップなどのモックアップを生成するのだ。
func (s *Studio) BrandMockup(ctx context.Context, req MockupRequest) (domain.ImagePayload, error) {
	if err := validate(req, req.Logo); err != nil {
		return domain.ImagePayload{}, err
	}
	return s.image(ctx, "brand-mockup", gemini.ImageRequest{
		Prompt: prompts.BrandMockup(req.Item, req.Material, req.Contact),
		Images: []domain.ImagePayload{req.Logo},
	})
}

// GenerateLogo はテキストの説明からベクター風ロゴを生成します。
func (s *Studio) GenerateLogo(ctx context.Context, req LogoRequest) (domain.ImagePayload, error) {
	if err := validate(req); err != nil {
		return domain.ImagePayload{}, err
	}
	style := withDefault(req.Style, DefaultLogoStyle)
	shape := req.Shape
	if shape == "" {
		shape = prompts.LogoCircle
	}
	prompt, err := s.prompts.Logo(req.Concept, style, shape)
	if err != nil {
		return domain.ImagePayload{}, err
	}
	return s.image(ctx, "logo", gemini.ImageRequest{Prompt: prompt, AspectRatio: domain.AspectSquare})
}

// GenerateCGI は 3DCG レンダリング風の画像を生成するのだ。
func (s *Studio) GenerateCGI(ctx context.Context, req CGIRequest) (domain.ImagePayload, error) {
	if err := validate(req); err != nil {
		return domain.ImagePayload{}, err
	}
	prompt := prompts.CGI(req.Description, withDefault(req.Style, DefaultCGIStyle))
	return s.image(ctx, "cgi", gemini.ImageRequest{Prompt: prompt})
}

// AnalyzeBrandIdentity はロゴと会社名からブランドガイドを生成します。
func (s *Studio) AnalyzeBrandIdentity(ctx context.Context, req BrandIdentityRequest) (domain.BrandIdentity, error) {
	var out domain.BrandIdentity
	if err := validate(req, req.Logo); err != nil {
		return out, err
	}
	prompt, err := s.prompts.BrandIdentity(req.Company)
	if err != nil {
		return out, err
	}
	if err := s.gw.GenerateJSON(ctx, prompt, &out, req.Logo); err != nil {
		return domain.BrandIdentity{}, err
	}
	return out, nil
}

// SWOT は事業説明から SWOT 分析を行うのだ。
func (s *Studio) SWOT(ctx context.Context, req SWOTRequest) (domain.SWOTAnalysis, error) {
	var out domain.SWOTAnalysis
	if err := validate(req); err != nil {
		return out, err
	}
	prompt, err := s.prompts.SWOT(req.Company, req.Description)
	if err != nil {
		return out, err
	}
	if err := s.gw.GenerateJSON(ctx, prompt, &out); err != nil {
		return domain.SWOTAnalysis{}, err
	}
	return out, nil
}

// MarketingStrategy はマークダウン形式のマーケティング戦略を返します。
func (s *Studio) MarketingStrategy(ctx context.Context, req MarketingRequest) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}
	prompt, err := s.prompts.MarketingStrategy(req.Product, req.Audience, req.Goal)
	if err != nil {
		return "", err
	}
	return s.gw.GenerateText(ctx, prompt)
}

// --- 映像制作ツール ---

// CinematicScript は物語をショット単位のブレイクダウンに変換するのだ。
func (s *Studio) CinematicScript(ctx context.Context, story string) ([]domain.CinematicShot, error) {
	if strings.TrimSpace(story) == "" {
		return nil, fmt.Errorf("%w: story is required", domain.ErrInvalidRequest)
	}
	prompt, err := s.prompts.CinematicScript(story)
	if err != nil {
		return nil, err
	}
	var shots []domain.CinematicShot
	if err := s.gw.GenerateJSON(ctx, prompt, &shots); err != nil {
		return nil, err
	}
	return shots, nil
}

// WriteNovel は小説の第1章を書くのだ。
func (s *Studio) WriteNovel(ctx context.Context, req NovelRequest) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}
	prompt, err := s.prompts.Novel(req.Genre, req.Idea, req.Characters)
	if err != nil {
		return "", err
	}
	return s.gw.GenerateText(ctx, prompt)
}

// OptimizeScript は脚本を推敲します。モデルが何も返さなかった場合は元の脚本をそのまま返すのだ。
func (s *Studio) OptimizeScript(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: script is required", domain.ErrInvalidRequest)
	}
	prompt, err := s.prompts.OptimizeScript(raw)
	if err != nil {
		return "", err
	}
	text, err := s.gw.GenerateText(ctx, prompt)
	if errors.Is(err, gemini.ErrNoData) {
		slog.Warn("Script optimization returned no text, keeping the original")
		return raw, nil
	}
	return text, err
}

func (s *Studio) image(ctx context.Context, tool string, req gemini.ImageRequest) (domain.ImagePayload, error) {
	img, err := s.gw.GenerateImage(ctx, req)
	if err != nil {
		slog.Error("Image tool failed", "tool", tool, "kind", gemini.Classify(err).String(), "error", err)
		return domain.ImagePayload{}, fmt.Errorf("%s: %w", tool, err)
	}
	slog.Info("Image tool finished", "tool", tool, "bytes", len(img.Data))
	return img, nil
}

// validate はタグの検証と、必須画像の空チェックをまとめて行うのだ。
func validate(req any, images ...domain.ImagePayload) error {
	if err := domain.Validate(req); err != nil {
		return err
	}
	return requireImages(images...)
}

func requireImages(images ...domain.ImagePayload) error {
	for i, img := range images {
		if img.IsEmpty() {
			return fmt.Errorf("%w: image %d is empty", domain.ErrInvalidRequest, i+1)
		}
	}
	return nil
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
