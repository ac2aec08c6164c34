package parser

import "regexp"

var (
	// TitleRegex は "# タイトル" 形式のタイトル行をキャプチャします。
	TitleRegex = regexp.MustCompile(`^#\s+(.+)`)

	// SceneRegex は "## Scene 3" のようなシーン区切り行を特定し、番号があればキャプチャします。
	SceneRegex = regexp.MustCompile(`(?i)^##\s+(?:Scene|Shot|Frame)\b\s*#?(\d+)?`)

	// FieldRegex は "- key: value" 形式のフィールド行をキャプチャします。
	FieldRegex = regexp.MustCompile(`^\s*-\s*([a-zA-Z_ ]+):\s*(.+)`)
)
