package studio

import (
	"strings"

	"github.com/erazemk/vendart/internal/model"
)

const defaultStory = "A beautiful handcrafted piece by a local artisan. Made with care and traditional techniques."

// Enhance expands a caption into a longer artwork story. It is a fixed
// template, not a model call; empty input yields a default story.
func Enhance(caption string) string {
	base := strings.TrimSpace(caption)
	if base == "" {
		return defaultStory
	}
	return "This exquisite handcrafted artwork tells a story of " + base + ". " +
		"Created using traditional materials and time-honored techniques passed down through generations of skilled artisans. " +
		"Each brushstroke carries the essence of cultural heritage, making this piece perfect for collectors who appreciate authentic craftsmanship. " +
		"The artwork reflects the artist's deep connection with their roots while embracing contemporary artistic expression. " +
		"Care instructions: Keep away from direct sunlight and moisture to preserve the vibrant colors and intricate details."
}

// Translate returns the story for every supported language.
func Translate(story string) map[string]string {
	return map[string]string{
		model.LangEnglish: story,
		model.LangHindi:   "हिंदी संस्करण: " + story,
		model.LangTelugu:  "తెలుగు వెర్షన్: " + story,
	}
}

// Title picks the item title: the explicit title, else the caption up to
// its first period, else a placeholder.
func Title(title, caption string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	first, _, _ := strings.Cut(caption, ".")
	if t := strings.TrimSpace(first); t != "" {
		return t
	}
	return UntitledTitle
}
