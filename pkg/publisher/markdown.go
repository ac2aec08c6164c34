package publisher

import (
	"fmt"
	"sync"

	"github.com/shouni/go-prompt-kit/md/builder"
	"github.com/shouni/go-prompt-kit/md/ports"
)

// テキスト系ツールの結果 (マーケティング戦略、小説など) はモデルの出力をそのまま埋め込むので、
// 生の HTML は出力しない設定のランナーを1つだけ作って使い回すのだ。
var (
	markdownOnce   sync.Once
	markdownRunner ports.Runner
	markdownErr    error
)

func newMarkdownRunner() (ports.Runner, error) {
	markdownOnce.Do(func() {
		b, err := builder.New(builder.WithEnableHardWraps(true), builder.WithHTMLMode())
		if err != nil {
			markdownErr = fmt.Errorf("markdown ビルダーの初期化に失敗しました: %w", err)
			return
		}
		markdownRunner, markdownErr = b.BuildRunner()
	})
	return markdownRunner, markdownErr
}

// RenderMarkdown は Markdown を単体で開ける HTML 文書に変換します。
func RenderMarkdown(title string, md string) ([]byte, error) {
	runner, err := newMarkdownRunner()
	if err != nil {
		return nil, err
	}
	page, err := runner.Run(title, []byte(md))
	if err != nil {
		return nil, fmt.Errorf("markdown の変換に失敗しました: %w", err)
	}
	return page.Bytes(), nil
}
