package entity

// Enhancement 章节增强项目录
type Enhancement struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	EstimatedSeconds int    `json:"estimatedSeconds"`
}

// 增强项 ID
const (
	EnhancementReadability = "readability"
	EnhancementExamples    = "examples"
	EnhancementStructure   = "structure"
	EnhancementEngagement  = "engagement"
	EnhancementSEO         = "seo"
	EnhancementFormatting  = "formatting"
)

var enhancementCatalog = []Enhancement{
	{ID: EnhancementReadability, Name: "読みやすさ向上", Description: "文章を分かりやすく、読みやすい形に改善", Category: "writing", EstimatedSeconds: 30},
	{ID: EnhancementExamples, Name: "具体例追加", Description: "理解を深める実例や事例を追加", Category: "content", EstimatedSeconds: 45},
	{ID: EnhancementStructure, Name: "構造最適化", Description: "見出しや段落構成を整理", Category: "structure", EstimatedSeconds: 20},
	{ID: EnhancementEngagement, Name: "読者エンゲージメント", Description: "読者の関心を引く要素を追加", Category: "engagement", EstimatedSeconds: 40},
	{ID: EnhancementSEO, Name: "SEO最適化", Description: "キーワードや検索性を向上", Category: "optimization", EstimatedSeconds: 25},
	{ID: EnhancementFormatting, Name: "フォーマット強化", Description: "リスト、強調、引用を適切に配置", Category: "formatting", EstimatedSeconds: 15},
}

// Enhancements 返回增强项目录的副本
func Enhancements() []Enhancement {
	return append([]Enhancement(nil), enhancementCatalog...)
}

// FindEnhancement 按 ID 查找增强项
func FindEnhancement(id string) (Enhancement, bool) {
	for _, e := range enhancementCatalog {
		if e.ID == id {
			return e, true
		}
	}
	return Enhancement{}, false
}

// IsKnownEnhancement 检查增强项 ID 是否存在
func IsKnownEnhancement(id string) bool {
	_, ok := FindEnhancement(id)
	return ok
}

// DedupeEnhancementIDs 去重并保留顺序
func DedupeEnhancementIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
