package search

import "unicode"

// LanguageTag classifies chunk text for reranker dispatch: "en" when the
// letters are predominantly Latin, "other" otherwise. A deliberately cheap
// heuristic -- rerankers that need real language identification bring
// their own.
func LanguageTag(text string) string {
	var latin, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r < 0x250 || unicode.Is(unicode.Latin, r) {
			latin++
		}
	}
	if letters == 0 || latin*2 >= letters {
		return "en"
	}
	return "other"
}
