// Package extract は、モデルの出力テキストから JSON を取り出すためのヘルパーを提供します。
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrStructuredData は、どの手段でも JSON を復元できなかったことを表すのだ。
var ErrStructuredData = errors.New("failed to parse AI response: the model did not return valid structured data")

const excerptLen = 200

// JSON は text から JSON を復元して v にデコードするのだ。
//
// 試す順番は次の通りで、最初に成功したものを採用するのだ。
//  1. テキスト全体をそのままパース
//  2. '{' または '[' を先頭から順に見て、同じ種類の最後の '}' / ']' までを切り出してパース
//  3. マークダウンのコードフェンスを取り除いてパース
func JSON(text string, v any) error {
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	for _, candidate := range outermost(text) {
		err := json.Unmarshal([]byte(candidate), v)
		if err == nil {
			return nil
		}
		slog.Debug("JSON extraction failed on bracket match", "error", err)
	}

	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w (応答抜粋: %q): %v", ErrStructuredData, truncate(text, excerptLen), err)
	}
	return nil
}

// Value は任意の JSON 値として復元します。
func Value(text string) (any, error) {
	var v any
	if err := JSON(text, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// outermost は開き括弧ごとに、そこから同じ種類の最後の閉じ括弧までの部分を出現順に返すのだ。
// 閉じ括弧が後ろに無い開き括弧は飛ばすのだ。
func outermost(text string) []string {
	lastObj := strings.LastIndexByte(text, '}')
	lastArr := strings.LastIndexByte(text, ']')

	var spans []string
	for i := 0; i < len(text); i++ {
		end := -1
		switch text[i] {
		case '{':
			end = lastObj
		case '[':
			end = lastArr
		default:
			continue
		}
		if end > i {
			spans = append(spans, text[i:end+1])
		}
	}
	return spans
}

func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// truncate は文字単位で切り詰めるので、マルチバイト文字の途中では切らないのだ。
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
