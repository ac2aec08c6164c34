// Package gemini は生成バックエンド (Gemini API) への唯一の入り口なのだ。
// 認証、リクエストの組み立て、レスポンスの解釈、エラー分類、再試行をここに集約しているのだ。
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/extract"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultImageModel  = "gemini-2.5-flash-image"
	DefaultHTTPTimeout = 120 * time.Second

	jsonMimeType = "application/json"
)

// Model は genai の Models サービスのうち、このパッケージが使う部分だけを切り出したものなのだ。
// テストではこれを差し替えるのだ。
type Model interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config はクライアントの設定です。
type Config struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	HTTPTimeout time.Duration

	// RetryTimer はテスト用に再試行の待ち時間を差し替えるのだ。
	RetryTimer backoff.Timer
}

// Client は Gemini API のゲートウェイです。並行利用しても安全なのだ。
type Client struct {
	model       Model
	textModel   string
	imageModel  string
	textPolicy  retry.Policy
	imagePolicy retry.Policy
}

// ImageRequest は画像生成・編集の入力なのだ。Images はプロンプトより前に送られるのだ。
type ImageRequest struct {
	Prompt      string
	Images      []domain.ImagePayload
	AspectRatio domain.AspectRatio
}

// New は API キーを確認してから genai クライアントを作成するのだ。
// キーが無い場合は通信を一切行わずに ErrMissingAPIKey を返すのだ。
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗したのだ: %w", err)
	}
	return NewWithModel(gc.Models, cfg), nil
}

// NewWithModel は任意の Model 実装からクライアントを組み立てます。
func NewWithModel(m Model, cfg Config) *Client {
	c := &Client{
		model:       m,
		textModel:   cfg.TextModel,
		imageModel:  cfg.ImageModel,
		textPolicy:  retry.TextPolicy(IsRetryable),
		imagePolicy: retry.ImagePolicy(IsRetryable),
	}
	if c.textModel == "" {
		c.textModel = DefaultTextModel
	}
	if c.imageModel == "" {
		c.imageModel = DefaultImageModel
	}
	c.textPolicy.Timer = cfg.RetryTimer
	c.imagePolicy.Timer = cfg.RetryTimer
	return c
}

// Generate は Mode に応じて画像・テキスト・JSON のいずれかを生成する統一的な入り口なのだ。
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if err := domain.Validate(req); err != nil {
		return domain.GenerationResult{}, err
	}
	switch req.Mode {
	case domain.ModeImage:
		img, err := c.GenerateImage(ctx, ImageRequest{Prompt: req.Prompt, Images: req.Images, AspectRatio: req.AspectRatio})
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.GenerationResult{Image: &img}, nil
	case domain.ModeJSON:
		var v any
		if err := c.GenerateJSON(ctx, req.Prompt, &v, req.Images...); err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.GenerationResult{Value: v}, nil
	default:
		text, err := c.GenerateText(ctx, req.Prompt, req.Images...)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.GenerationResult{Text: text}, nil
	}
}

// EditImage は入力画像とプロンプトから画像を1枚生成します。
func (c *Client) EditImage(ctx context.Context, prompt string, images ...domain.ImagePayload) (domain.ImagePayload, error) {
	return c.GenerateImage(ctx, ImageRequest{Prompt: prompt, Images: images})
}

// GenerateImage は画像モダリティで生成し、最初のインライン画像を返すのだ。
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (domain.ImagePayload, error) {
	contents := buildContents(req.Prompt, req.Images)
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	}
	if req.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: string(req.AspectRatio)}
	}

	return retry.Do(ctx, c.imagePolicy, func(ctx context.Context) (domain.ImagePayload, error) {
		start := time.Now()
		resp, err := c.model.GenerateContent(ctx, c.imageModel, contents, config)
		if err != nil {
			return domain.ImagePayload{}, err
		}
		img, err := parseImage(resp)
		if err != nil {
			return domain.ImagePayload{}, err
		}
		slog.Debug("Image generated",
			"model", c.imageModel,
			"input_images", len(req.Images),
			"bytes", len(img.Data),
			"duration", time.Since(start).Round(time.Millisecond))
		return img, nil
	})
}

// GenerateText はテキストを生成します。画像を添付することもできるのだ。
func (c *Client) GenerateText(ctx context.Context, prompt string, images ...domain.ImagePayload) (string, error) {
	return c.generateText(ctx, prompt, images, nil)
}

// GenerateJSON は JSON 形式の応答を要求し、extract.JSON で v にデコードするのだ。
func (c *Client) GenerateJSON(ctx context.Context, prompt string, v any, images ...domain.ImagePayload) error {
	config := &genai.GenerateContentConfig{ResponseMIMEType: jsonMimeType}
	_, err := retry.Do(ctx, c.textPolicy, func(ctx context.Context) (struct{}, error) {
		text, err := c.callText(ctx, buildContents(prompt, images), config)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, extract.JSON(text, v)
	})
	return err
}

func (c *Client) generateText(ctx context.Context, prompt string, images []domain.ImagePayload, config *genai.GenerateContentConfig) (string, error) {
	contents := buildContents(prompt, images)
	return retry.Do(ctx, c.textPolicy, func(ctx context.Context) (string, error) {
		return c.callText(ctx, contents, config)
	})
}

func (c *Client) callText(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, c.textModel, contents, config)
	if err != nil {
		return "", err
	}
	text, err := parseText(resp)
	if err != nil {
		return "", err
	}
	slog.Debug("Text generated",
		"model", c.textModel,
		"chars", len(text),
		"duration", time.Since(start).Round(time.Millisecond))
	return text, nil
}

// buildContents は画像パートを先に、テキストパートを最後に並べるのだ。
func buildContents(prompt string, images []domain.ImagePayload) []*genai.Content {
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		if img.IsEmpty() {
			continue
		}
		mime := img.MimeType
		if mime == "" {
			mime = domain.DetectMimeType(img.Data)
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	parts = append(parts, genai.NewPartFromText(prompt))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func checkBlocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: empty response", ErrNoData)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return fmt.Errorf("%w (prompt %s: %s)", ErrSafetyBlocked, fb.BlockReason, fb.BlockReasonMessage)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return fmt.Errorf("%w: no candidates", ErrNoData)
	}
	return nil
}

func parseImage(resp *genai.GenerateContentResponse) (domain.ImagePayload, error) {
	if err := checkBlocked(resp); err != nil {
		return domain.ImagePayload{}, err
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop {
		return domain.ImagePayload{}, finishReasonError(cand.FinishReason, cand.FinishMessage)
	}
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return domain.NewImagePayload(part.InlineData.Data, part.InlineData.MIMEType), nil
		}
	}
	return domain.ImagePayload{}, ErrNoData
}

func parseText(resp *genai.GenerateContentResponse) (string, error) {
	if err := checkBlocked(resp); err != nil {
		return "", err
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case "", genai.FinishReasonStop, genai.FinishReasonMaxTokens:
	default:
		return "", finishReasonError(cand.FinishReason, cand.FinishMessage)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text returned", ErrNoData)
	}
	return text, nil
}
