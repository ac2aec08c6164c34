package prompts

// テンプレート名なのだ。templates/<name>.md に対応するのだ。
const (
	TemplateDecompose     = "decompose"
	TemplateOptimize      = "optimize"
	TemplateCinematic     = "cinematic"
	TemplateNovel         = "novel"
	TemplateSWOT          = "swot"
	TemplateMarketing     = "marketing"
	TemplateBrandIdentity = "brand_identity"
	TemplateLogo          = "logo"
)

// TemplateData はテキストプロンプトのテンプレートに渡すデータ構造です。
// テンプレートごとに使うフィールドは異なります。
type TemplateData struct {
	InputText string

	// 絵コンテ分解用
	CountInstruction string

	// 企業・商品名と説明
	Name        string
	Description string
	Audience    string
	Goal        string

	// 小説用
	Genre      string
	Idea       string
	Characters string

	// ロゴ用
	Style            string
	ShapeInstruction string
}
