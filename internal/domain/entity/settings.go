package entity

import "fmt"

// Tone 文体
type Tone string

const (
	ToneFormal    Tone = "formal"
	ToneCasual    Tone = "casual"
	ToneAcademic  Tone = "academic"
	ToneNarrative Tone = "narrative"
)

// Valid 检查文体是否为已知取值
func (t Tone) Valid() bool {
	switch t {
	case ToneFormal, ToneCasual, ToneAcademic, ToneNarrative:
		return true
	}
	return false
}

// 默认设置
const (
	DefaultTargetLength = 10000
	DefaultLanguage     = "ja"
	DefaultTone         = ToneFormal
)

// Settings 生成设置，值对象
type Settings struct {
	TargetLength  int       `json:"targetLength"`
	Language      string    `json:"language"`
	Tone          Tone      `json:"tone"`
	IncludeImages bool      `json:"includeImages"`
	AIEnhancement bool      `json:"aiEnhancement"`
	Template      *Template `json:"template,omitempty"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() Settings {
	return Settings{
		TargetLength:  DefaultTargetLength,
		Language:      DefaultLanguage,
		Tone:          DefaultTone,
		AIEnhancement: true,
	}
}

// Validate 校验设置
func (s Settings) Validate() error {
	if s.TargetLength <= 0 {
		return fmt.Errorf("targetLength must be positive, got %d", s.TargetLength)
	}
	if !s.Tone.Valid() {
		return fmt.Errorf("unknown tone %q", s.Tone)
	}
	return nil
}

// ApplyTemplate 将模板的目标长度、文体和模板本身复制进设置
func (s Settings) ApplyTemplate(t Template) Settings {
	cp := t.Clone()
	s.TargetLength = cp.TargetLength
	s.Tone = cp.Tone
	s.Template = &cp
	return s
}

// Clone 深拷贝设置
func (s Settings) Clone() Settings {
	if s.Template != nil {
		t := s.Template.Clone()
		s.Template = &t
	}
	return s
}

// Template 书籍模板，只读目录项
type Template struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category"`
	Structure    []string `json:"structure"`
	TargetLength int      `json:"targetLength"`
	Tone         Tone     `json:"tone"`
	Features     []string `json:"features"`
}

// Clone 深拷贝模板
func (t Template) Clone() Template {
	t.Structure = append([]string(nil), t.Structure...)
	t.Features = append([]string(nil), t.Features...)
	return t
}

var templateCatalog = []Template{
	{
		ID:           "tutorial",
		Name:         "チュートリアル・ハウツー",
		Description:  "手順解説やスキル習得に最適な構成",
		Category:     "educational",
		Structure:    []string{"概要・目標設定", "必要な準備", "基本操作", "応用テクニック", "トラブルシューティング", "まとめ・次のステップ"},
		TargetLength: 12000,
		Tone:         ToneCasual,
		Features:     []string{"ステップバイステップ", "実践的", "スクリーンショット推奨"},
	},
	{
		ID:           "business",
		Name:         "ビジネス・マーケティング",
		Description:  "戦略や手法を体系的に解説",
		Category:     "business",
		Structure:    []string{"現状分析", "課題の特定", "解決策の提案", "実装方法", "効果測定", "改善・最適化"},
		TargetLength: 15000,
		Tone:         ToneFormal,
		Features:     []string{"データ重視", "事例豊富", "アクションプラン"},
	},
	{
		ID:           "academic",
		Name:         "学術・研究",
		Description:  "論文や研究内容を一般向けに",
		Category:     "educational",
		Structure:    []string{"研究背景", "問題提起", "理論的枠組み", "研究方法", "結果と考察", "結論と今後の展望"},
		TargetLength: 20000,
		Tone:         ToneAcademic,
		Features:     []string{"引用重視", "論理的構成", "専門用語解説"},
	},
	{
		ID:           "lifestyle",
		Name:         "ライフスタイル・自己啓発",
		Description:  "読者の行動変容を促すストーリー",
		Category:     "lifestyle",
		Structure:    []string{"現状への問題提起", "理想の状態", "変化のステップ", "具体的な行動", "継続のコツ", "成功事例"},
		TargetLength: 10000,
		Tone:         ToneNarrative,
		Features:     []string{"共感重視", "ストーリー性", "実践的アドバイス"},
	},
	{
		ID:           "technical",
		Name:         "テクニカル・エンジニアリング",
		Description:  "技術解説や開発手法",
		Category:     "technical",
		Structure:    []string{"技術概要", "環境構築", "基本実装", "応用・カスタマイズ", "パフォーマンス最適化", "デプロイ・運用"},
		TargetLength: 18000,
		Tone:         ToneFormal,
		Features:     []string{"コード例", "図解豊富", "ベストプラクティス"},
	},
	{
		ID:           "creative",
		Name:         "クリエイティブ・アート",
		Description:  "創作活動や表現技法",
		Category:     "creative",
		Structure:    []string{"インスピレーション", "基本技法", "表現の幅を広げる", "スタイルの確立", "作品完成まで", "発表・フィードバック"},
		TargetLength: 8000,
		Tone:         ToneCasual,
		Features:     []string{"ビジュアル重視", "感性に訴える", "プロセス重視"},
	},
}

// Templates 返回模板目录的副本
func Templates() []Template {
	out := make([]Template, len(templateCatalog))
	for i, t := range templateCatalog {
		out[i] = t.Clone()
	}
	return out
}

// FindTemplate 按 ID 查找模板
func FindTemplate(id string) (Template, bool) {
	for _, t := range templateCatalog {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return Template{}, false
}
