package filter

import (
	"strings"

	"go-lancers-scout/internal/models"

	"golang.org/x/text/cases"
)

type categoryKeywords struct {
	category models.Category
	keywords []string
}

// categoryTable is ordered: on equal scores the earlier category wins.
var categoryTable = []categoryKeywords{
	{models.CategoryWebDevelopment, []string{"Web", "ウェブ", "ホームページ", "サイト", "WordPress", "PHP", "JavaScript", "React", "Vue", "Next.js", "フロントエンド", "バックエンド"}},
	{models.CategoryAppDevelopment, []string{"アプリ", "iOS", "Android", "Flutter", "React Native", "Swift", "Kotlin", "モバイル"}},
	{models.CategoryScraping, []string{"スクレイピング", "クローリング", "データ収集", "データ取得", "自動取得"}},
	{models.CategoryAutomation, []string{"自動化", "RPA", "効率化", "ツール開発", "バッチ", "定期実行"}},
	{models.CategoryDataAnalysis, []string{"分析", "データ", "統計", "pandas", "可視化", "レポート", "BI"}},
	{models.CategoryAIML, []string{"AI", "機械学習", "深層学習", "ChatGPT", "LLM", "自然言語処理", "画像認識"}},
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// Categorize returns the category whose keywords appear most often in text,
// or CategoryOther when none appear.
func Categorize(text string) models.Category {
	folded := fold(text)

	best := models.CategoryOther
	bestScore := 0
	for _, entry := range categoryTable {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(folded, fold(kw)) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = entry.category, score
		}
	}
	return best
}

// Keywords returns a copy of the keyword list for a category.
func Keywords(c models.Category) []string {
	for _, entry := range categoryTable {
		if entry.category == c {
			return append([]string{}, entry.keywords...)
		}
	}
	return nil
}
