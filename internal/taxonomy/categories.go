// Package taxonomy holds the static Lancers category/subcategory list used to
// build search URLs.
package taxonomy

import "strings"

type Subcategory struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

type Category struct {
	Slug          string        `json:"slug"`
	Label         string        `json:"label"`
	Subcategories []Subcategory `json:"subcategories"`
}

var Lancers = []Category{
	{Slug: "system", Label: "システム開発・運用", Subcategories: []Subcategory{
		{"development", "Web・システム開発"},
		{"smartphoneapp", "スマホアプリ・モバイル開発"},
		{"maintenance", "運用・管理・保守"},
		{"instructor", "講師・ITコンサルタント"},
		{"ai", "AI・機械学習・ChatGPT"},
		{"tool", "業務システム・ツール開発"},
		{"product_development", "製品開発・設計"},
	}},
	{Slug: "web", Label: "Web制作・Webデザイン", Subcategories: []Subcategory{
		{"website", "ウェブサイト制作・デザイン"},
		{"modification_customization", "Webサイト修正・カスタム"},
		{"smartphonesite", "スマートフォン・モバイルサイト制作"},
		{"webparts", "バナー・アイコン・ボタン"},
		{"thumbnail_image_design", "サムネイル・画像デザイン"},
		{"ec", "ECサイト・ネットショップ構築・運用"},
		{"management", "運営・更新・保守・SNS運用"},
	}},
	{Slug: "writing", Label: "ライティング・ネーミング", Subcategories: []Subcategory{
		{"writing", "ライティング"},
		{"copy", "ネーミング・コピーライティング"},
		{"edit", "編集・校正"},
		{"script_writing", "小説・シナリオ・出版物の作成"},
		{"business_writing", "ビジネス文章の作成"},
	}},
	{Slug: "design", Label: "デザイン制作", Subcategories: []Subcategory{
		{"designparts", "ロゴ・イラスト・キャラクター"},
		{"graphic", "印刷物・DTP・その他"},
		{"info", "看板・地図・インフォグラフィック"},
		{"medium", "CD・本"},
		{"product", "プロダクトデザイン・3D-CG制作"},
		{"wedding_anniversary", "結婚式・記念日デザイン"},
		{"design_data_correction_conversion", "デザインデータ修正・変換"},
		{"architecture_interior_drawing", "建築・インテリア・図面デザイン"},
	}},
	{Slug: "multimedia", Label: "写真・映像・音楽", Subcategories: []Subcategory{
		{"photograph", "写真撮影・素材提供・画像加工"},
		{"create", "漫画・アニメーション"},
		{"music", "ナレーション・キャラクターボイス"},
		{"video", "動画編集・映像制作"},
		{"wedding_event_movie", "結婚式・イベント動画制作"},
		{"bgm_soundeffect", "BGM・SE・ジングル作成"},
		{"composition_arrange", "作曲・編曲（アレンジ）"},
		{"me_singing", "歌ってみた"},
		{"performance", "楽器演奏"},
		{"temporarysong_vocaloid", "仮歌・歌入れ・ボカロ制作"},
	}},
	{Slug: "business", Label: "ビジネス・事務・専門・その他", Subcategories: []Subcategory{
		{"businesssupport", "バックオフィス・ビジネスサポート"},
		{"support", "資料作成サポート"},
		{"consultant", "コンサルティング"},
		{"brushchar", "筆文字・筆耕"},
		{"ai_enhancement", "生成AI活用・業務効率化"},
		{"workother", "その他"},
	}},
	{Slug: "translation", Label: "翻訳・通訳", Subcategories: []Subcategory{
		{"english", "英語翻訳・英文翻訳"},
		{"chinese", "中国語翻訳"},
		{"korean", "韓国語翻訳"},
		{"french", "フランス語翻訳"},
		{"spanish", "スペイン語翻訳"},
		{"german", "ドイツ語翻訳"},
		{"thai", "タイ語翻訳"},
		{"vietnamese", "ベトナム語翻訳"},
		{"russian", "ロシア語翻訳"},
		{"italian", "イタリア語翻訳"},
		{"portuguese", "ポルトガル語翻訳"},
		{"media", "映像翻訳・出版翻訳・メディア翻訳"},
		{"simultaneous", "同時通訳・電話通訳"},
		{"translations", "その他翻訳"},
	}},
}

func Get(slug string) (Category, bool) {
	for _, c := range Lancers {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

func GetSubcategory(categorySlug, subSlug string) (Subcategory, bool) {
	c, ok := Get(categorySlug)
	if !ok {
		return Subcategory{}, false
	}
	for _, s := range c.Subcategories {
		if s.Slug == subSlug {
			return s, true
		}
	}
	return Subcategory{}, false
}

// Flat returns copies of every category, safe to hand to API callers.
func Flat() []Category {
	out := make([]Category, len(Lancers))
	for i, c := range Lancers {
		out[i] = Category{Slug: c.Slug, Label: c.Label, Subcategories: append([]Subcategory{}, c.Subcategories...)}
	}
	return out
}

// Selection is one "category[/subcategory]" scrape target. An empty
// Category means all categories.
type Selection struct {
	Category    string
	Subcategory string
	Label       string
}

// ParseSelection splits "system/ai" into its parts.
func ParseSelection(s string) Selection {
	s = strings.TrimSpace(s)
	cat, sub, _ := strings.Cut(s, "/")
	return Selection{Category: cat, Subcategory: sub, Label: s}
}

func ParseSelections(items []string) []Selection {
	var out []Selection
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		out = append(out, ParseSelection(item))
	}
	if len(out) == 0 {
		out = []Selection{{Label: "all"}}
	}
	return out
}

// Known reports whether the selection names a listed category and, when
// given, one of its subcategories. The "all" selection is always known.
func (s Selection) Known() bool {
	switch {
	case s.Category == "":
		return true
	case s.Subcategory == "":
		_, ok := Get(s.Category)
		return ok
	default:
		_, ok := GetSubcategory(s.Category, s.Subcategory)
		return ok
	}
}

// Unknown returns the items that do not name a listed category.
func Unknown(items []string) []string {
	var out []string
	for _, sel := range ParseSelections(items) {
		if !sel.Known() {
			out = append(out, sel.Label)
		}
	}
	return out
}
