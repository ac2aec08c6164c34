package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest は入力値が不正な場合に返されるのだ。
var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New()

// Validate は validate タグに従って構造体を検証するのだ。
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Mode は生成バックエンドに要求するレスポンス形式です。
type Mode int

const (
	ModeText Mode = iota
	ModeImage
	ModeJSON
)

func (m Mode) String() string {
	switch m {
	case ModeImage:
		return "image"
	case ModeJSON:
		return "json"
	default:
		return "text"
	}
}

// GenerationRequest は1回の生成呼び出しに必要な入力一式なのだ。
// 呼び出しごとに組み立てて、結果が返れば破棄する使い捨ての値なのだ。
type GenerationRequest struct {
	Prompt      string         `validate:"required"`
	Images      []ImagePayload
	Mode        Mode
	AspectRatio AspectRatio
}

// GenerationResult は生成結果です。Mode に応じて Image / Text / Value のいずれかが入ります。
type GenerationResult struct {
	Image *ImagePayload
	Text  string
	Value any
}

// StoryboardRequest は絵コンテ生成パイプラインへの入力なのだ。
type StoryboardRequest struct {
	Script      string        `json:"script" validate:"required"`
	SceneCount  SceneCount    `json:"scene_count" validate:"omitempty,min=3,max=10"`
	AspectRatio AspectRatio   `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1"`
	Reference   *ImagePayload `json:"-"`
}
