// Package parser は、作成済みのシーン一覧を読み込むのだ。
// 分解フェーズを飛ばして、画像生成だけをやり直したいときに使うのだ。
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ErrNoScenes は入力からシーンを1つも取り出せなかったことを表します。
var ErrNoScenes = errors.New("no scenes found")

// Script は読み込んだシーン一覧なのだ。
type Script struct {
	Title  string         `json:"title,omitempty"`
	Scenes []domain.Scene `json:"scenes"`
}

// Parser は解析するためのインターフェースなのだ。
type Parser interface {
	Parse(input string) (*Script, error)
}

// JSONParser は scenes.json (出力ファイル) か、シーン配列そのものを解析する構造体です。
type JSONParser struct{}

// NewJSONParser は新しい JSONParser インスタンスを生成します。
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Parse はオブジェクト形式 ({"scenes": [...]}) と配列形式の両方を受け付けるのだ。
func (p *JSONParser) Parse(input string) (*Script, error) {
	input = strings.TrimSpace(input)
	script := &Script{}
	var err error
	if strings.HasPrefix(input, "[") {
		err = json.Unmarshal([]byte(input), &script.Scenes)
	} else {
		err = json.Unmarshal([]byte(input), script)
	}
	if err != nil {
		return nil, fmt.Errorf("シーンJSONのパースに失敗しました: %w", err)
	}
	if len(script.Scenes) == 0 {
		return nil, ErrNoScenes
	}
	return script, nil
}

// Parse は内容から形式を判定して解析し、ID 昇順のシーン一覧を返すのだ。
func Parse(input string) (*Script, error) {
	var p Parser = NewMarkdownParser()
	if trimmed := strings.TrimSpace(input); strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		p = NewJSONParser()
	}
	script, err := p.Parse(input)
	if err != nil {
		return nil, err
	}
	script.Scenes = domain.Scenes(script.Scenes).SortByID()
	return script, nil
}
