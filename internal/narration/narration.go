// Package narration picks the text and speech locale used when an item's
// story is read aloud. Playback itself happens in the browser.
package narration

import "github.com/erazemk/vendart/internal/model"

var locales = map[string]string{
	model.LangEnglish: "en-US",
	model.LangHindi:   "hi-IN",
	model.LangTelugu:  "te-IN",
}

// Locale returns the BCP 47 speech locale for a story language.
// Unknown languages fall back to English.
func Locale(lang string) string {
	if l, ok := locales[lang]; ok {
		return l
	}
	return locales[model.LangEnglish]
}

// Text returns what should be spoken for item in lang: the translation,
// else the story, caption or title. Empty means nothing to read.
func Text(item model.Item, lang string) string {
	if t := item.Translations[lang]; t != "" {
		return t
	}
	for _, s := range []string{item.Story, item.Caption, item.Title} {
		if s != "" {
			return s
		}
	}
	return ""
}
