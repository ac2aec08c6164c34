package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scene struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "そのままのJSON", text: `[{"id":1,"description":"港"}]`},
		{name: "前置きの文章付き", text: "Here is the JSON you asked for:\n[{\"id\":1,\"description\":\"港\"}]\nEnjoy!"},
		{name: "json フェンス付き", text: "```json\n[{\"id\":1,\"description\":\"港\"}]\n```"},
		{name: "言語指定なしフェンス", text: "```\n[{\"id\":1,\"description\":\"港\"}]\n```"},
		{name: "前後に空白", text: "  \n [{\"id\":1,\"description\":\"港\"}] \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []scene
			require.NoError(t, JSON(tt.text, &got))
			assert.Equal(t, []scene{{ID: 1, Description: "港"}}, got)
		})
	}
}

func TestJSON_Object(t *testing.T) {
	text := "Sure! ```json\n{\"strengths\": [\"brand\"], \"threats\": []}\n``` Let me know."
	var got map[string][]string
	require.NoError(t, JSON(text, &got))
	assert.Equal(t, []string{"brand"}, got["strengths"])
}

func TestJSON_NestedBrackets(t *testing.T) {
	// 配列の中にオブジェクトがあっても最初の開き括弧を基準に切り出すのだ
	text := `result: [{"id": 1, "description": "a {b}"}, {"id": 2, "description": "c"}] done`
	var got []scene
	require.NoError(t, JSON(text, &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "a {b}", got[0].Description)
}

func TestJSON_Failure(t *testing.T) {
	inputs := []string{
		"",
		"I could not produce a storyboard for this script.",
		"```json\n{ not json }\n```",
		"[1, 2",
	}
	for _, in := range inputs {
		var v any
		err := JSON(in, &v)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, ErrStructuredData)
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{name: "前後に文章", text: "prefix {\"a\": 1} suffix", want: map[string]any{"a": float64(1)}},
		{name: "閉じない角括弧の後ろにオブジェクト", text: "Note [see below: {\"a\":1}", want: map[string]any{"a": float64(1)}},
		{name: "壊れたオブジェクトの後ろに配列", text: "{oops [1, 2]", want: []any{float64(1), float64(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Value(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	t.Run("括弧が無い", func(t *testing.T) {
		_, err := Value("nothing here")
		assert.ErrorIs(t, err, ErrStructuredData)
	})
}

func TestTruncate(t *testing.T) {
	t.Run("文字数で切り詰める", func(t *testing.T) {
		got := truncate("あいうえお", 3)
		assert.Equal(t, "あいう...", got)
		assert.True(t, utf8.ValidString(got))
	})
	t.Run("短ければそのまま", func(t *testing.T) {
		assert.Equal(t, "港", truncate("港", 3))
	})
	t.Run("エラーの抜粋も壊れない", func(t *testing.T) {
		var v any
		err := JSON(strings.Repeat("港", excerptLen+10), &v)
		require.ErrorIs(t, err, ErrStructuredData)
		assert.True(t, utf8.ValidString(err.Error()))
		assert.Contains(t, err.Error(), strings.Repeat("港", excerptLen)+"...")
	})
}
