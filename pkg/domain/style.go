package domain

// StyleID は画風を識別するIDです（例: "digital-art"）。
type StyleID string

// Style は選択可能な画風の定義です。
type Style struct {
	ID         StyleID
	Name       string // 表示用ラベル
	PromptHint string // 実際の生成器へ渡すプロンプト補助
}

// Catalog は起動時に決まる固定の画風一覧です。生成後は変更されません。
type Catalog struct {
	styles []Style
	index  map[StyleID]int
}

// NewCatalog は与えられた順序を保ったまま Catalog を作成します。
// 先頭の要素がデフォルトの画風になります。
func NewCatalog(styles ...Style) *Catalog {
	c := &Catalog{
		styles: make([]Style, 0, len(styles)),
		index:  make(map[StyleID]int, len(styles)),
	}
	for _, s := range styles {
		if _, dup := c.index[s.ID]; dup {
			continue
		}
		c.index[s.ID] = len(c.styles)
		c.styles = append(c.styles, s)
	}
	return c
}

// DefaultCatalog は Zoragen の標準画風一覧を返します。
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Style{ID: "digital-art", Name: "Digital Art", PromptHint: "digital art, vivid colors, highly detailed"},
		Style{ID: "photorealistic", Name: "Photorealistic", PromptHint: "photorealistic, natural lighting, 85mm photograph"},
		Style{ID: "anime", Name: "Anime", PromptHint: "anime style, clean line art, cel shading"},
		Style{ID: "oil-painting", Name: "Oil Painting", PromptHint: "oil painting on canvas, visible brush strokes"},
		Style{ID: "cyberpunk", Name: "Cyberpunk", PromptHint: "cyberpunk, neon lights, futuristic city"},
		Style{ID: "minimalist", Name: "Minimalist", PromptHint: "minimalist, flat shapes, generous negative space"},
	)
}

// Default は先頭の画風を返します。空のカタログではゼロ値を返します。
func (c *Catalog) Default() Style {
	if len(c.styles) == 0 {
		return Style{}
	}
	return c.styles[0]
}

// Contains は id がカタログに含まれるかを返します。
func (c *Catalog) Contains(id StyleID) bool {
	_, ok := c.index[id]
	return ok
}

// Lookup は id に対応する画風を返します。
func (c *Catalog) Lookup(id StyleID) (Style, bool) {
	i, ok := c.index[id]
	if !ok {
		return Style{}, false
	}
	return c.styles[i], true
}

// Styles はカタログ順の画風一覧のコピーを返します。
func (c *Catalog) Styles() []Style {
	out := make([]Style, len(c.styles))
	copy(out, c.styles)
	return out
}

// Len はカタログの件数です。
func (c *Catalog) Len() int {
	return len(c.styles)
}
