package tools

import (
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// 画像系ツールの入力なのだ。画像フィールドは Studio 側で空チェックするのだ。

type RestoreRequest struct {
	Image       domain.ImagePayload
	Mode        prompts.RestoreMode `validate:"required,oneof=restore colorize enhance object-edit"`
	ColorStyle  prompts.ColorStyle  `validate:"omitempty,oneof=realistic vintage vibrant pastel dramatic"`
	Instruction string              `validate:"required_if=Mode object-edit"`
}

type AngleRequest struct {
	Image  domain.ImagePayload
	Preset string `validate:"required"`
	X      int    `validate:"min=-180,max=180"`
	Y      int    `validate:"min=-90,max=90"`
}

type GroupRequest struct {
	People    []domain.ImagePayload `validate:"min=1"`
	Scene     string                `validate:"required"`
	Realistic bool
}

type CloneRequest struct {
	// Reference は背景・服装・ポーズの元、Face は顔の元なのだ
	Reference domain.ImagePayload
	Face      domain.ImagePayload
}

type GenerateMeRequest struct {
	Photo domain.ImagePayload
	Scene string `validate:"required"`
}

type ProductRequest struct {
	Product     domain.ImagePayload
	Logo        *domain.ImagePayload
	Setting     string             `validate:"required"`
	AspectRatio domain.AspectRatio `validate:"omitempty,oneof=16:9 9:16 1:1"`
}

type MockupRequest struct {
	Logo     domain.ImagePayload
	Item     string           `validate:"required"`
	Material prompts.Material `validate:"omitempty,oneof=Original 'Gold Foil' 'Silver Foil' 'Matte White' Debossed"`
	Contact  prompts.Contact
}

type LogoRequest struct {
	Concept string            `validate:"required"`
	Style   string
	Shape   prompts.LogoShape `validate:"omitempty,oneof=square circle"`
}

type CGIRequest struct {
	Description string `validate:"required"`
	Style       string
}

// テキスト系ツールの入力なのだ。

type BrandIdentityRequest struct {
	Logo    domain.ImagePayload
	Company string `json:"company" validate:"required"`
}

type NovelRequest struct {
	Genre      string `json:"genre"`
	Idea       string `json:"idea" validate:"required"`
	Characters string `json:"characters"`
}

type SWOTRequest struct {
	Company     string `json:"company" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type MarketingRequest struct {
	Product  string `json:"product" validate:"required"`
	Audience string `json:"audience" validate:"required"`
	Goal     string `json:"goal" validate:"required"`
}
