package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// SWOTAnalysis は SWOT 分析ツールの構造化レスポンスです。
type SWOTAnalysis struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// BrandIdentity はロゴ解析から得られるブランドガイドなのだ。
type BrandIdentity struct {
	Colors      []string   `json:"colors"`
	Typography  Typography `json:"typography"`
	BrandVoice  string     `json:"brand_voice"`
	IndustryFit string     `json:"industry_fit"`
}

// Typography はフォントの組み合わせ提案なのだ。
// モデルは文字列で返すこともオブジェクトで返すこともあるので、どちらも受け付けるのだ。
type Typography struct {
	Headings string `json:"headings,omitempty"`
	Body     string `json:"body,omitempty"`
	Note     string `json:"note,omitempty"`
}

// UnmarshalJSON は文字列形式とオブジェクト形式の両方を受け付けます。
func (t *Typography) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Typography{Note: s}
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Typography{}
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		s := stringify(raw[k])
		switch strings.ToLower(k) {
		case "headings", "heading", "headline", "headlines", "title":
			t.Headings = s
		case "body", "text", "paragraph":
			t.Body = s
		default:
			if t.Note != "" {
				t.Note += "; "
			}
			t.Note += k + ": " + s
		}
	}
	return nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// CinematicShot は脚本ブレイクダウンの1ショットなのだ。
type CinematicShot struct {
	Slugline     string `json:"slugline"`
	Action       string `json:"action"`
	VisualPrompt string `json:"visual_prompt"`
}
