package prompts

// BrandIdentity はロゴ画像からブランドガイドを JSON で生成させるプロンプトです。
func (b *Builder) BrandIdentity(company string) (string, error) {
	return b.Build(TemplateBrandIdentity, TemplateData{Name: company})
}

// CinematicScript は物語をショット単位の JSON 配列に変換させるのだ。
func (b *Builder) CinematicScript(story string) (string, error) {
	return b.Build(TemplateCinematic, TemplateData{InputText: story})
}

// Novel は小説の第1章を書かせるプロンプトなのだ。
func (b *Builder) Novel(genre, idea, characters string) (string, error) {
	return b.Build(TemplateNovel, TemplateData{Genre: genre, Idea: idea, Characters: characters})
}

// SWOT は SWOT 分析を JSON で返させるのだ。
func (b *Builder) SWOT(company, description string) (string, error) {
	return b.Build(TemplateSWOT, TemplateData{Name: company, Description: description})
}

// MarketingStrategy はマークダウン形式のマーケティング戦略を書かせます。
func (b *Builder) MarketingStrategy(product, audience, goal string) (string, error) {
	return b.Build(TemplateMarketing, TemplateData{Name: product, Audience: audience, Goal: goal})
}
