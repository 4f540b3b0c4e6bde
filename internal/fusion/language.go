package fusion

import "github.com/no-bike/software-aibot/pkg/api"

// containsCJK reports whether s holds at least one CJK Unified Ideograph
// (U+4E00..U+9FFF).
func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// DetectLanguage classifies a set of texts for fusion-strategy routing. A
// single CJK codepoint anywhere in the set routes the whole request down the
// Chinese path.
func DetectLanguage(texts ...string) api.Language {
	for _, t := range texts {
		if containsCJK(t) {
			return api.LanguageChinese
		}
	}
	return api.LanguageEnglish
}
