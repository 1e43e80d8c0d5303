package filter

import "strings"

// SkillKeywords is the fixed engineering vocabulary scanned in descriptions.
var SkillKeywords = []string{
	"Python", "JavaScript", "TypeScript", "React", "Vue", "Angular",
	"Node.js", "Django", "Flask", "FastAPI", "Ruby", "Rails",
	"PHP", "Laravel", "Java", "Spring", "Go", "Rust",
	"AWS", "GCP", "Azure", "Docker", "Kubernetes",
	"MySQL", "PostgreSQL", "MongoDB", "Redis",
	"HTML", "CSS", "Sass", "WordPress",
	"iOS", "Android", "Swift", "Kotlin", "Flutter",
	"機械学習", "AI", "データ分析", "スクレイピング",
}

// ExtractSkills returns, in vocabulary order, every keyword found in text.
func ExtractSkills(text string) []string {
	folded := fold(text)
	skills := []string{}
	for _, skill := range SkillKeywords {
		if strings.Contains(folded, fold(skill)) {
			skills = append(skills, skill)
		}
	}
	return skills
}

// Overlaps reports whether a and b contain each other, case-insensitively.
func Overlaps(a, b string) bool {
	fa, fb := fold(a), fold(b)
	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}

// ContainsFold reports whether sub appears in s, case-insensitively.
func ContainsFold(s, sub string) bool {
	return strings.Contains(fold(s), fold(sub))
}
