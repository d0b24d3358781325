package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// motionPrompt builds the animation prompt handed to the video provider when
// the scene does not carry one. The narration's leading clause becomes the
// subject of a gentle camera move so the generated motion stays anchored to
// the scene's content.
func motionPrompt(narration string) string {
	subject := strings.TrimSpace(narration)
	if idx := strings.IndexAny(subject, ".!?"); idx > 0 {
		subject = subject[:idx]
	}
	words := strings.Fields(subject)
	if len(words) > 12 {
		words = words[:12]
	}
	subject = titleCaser.String(strings.Join(words, " "))
	if subject == "" {
		return "Slow cinematic camera push-in, subtle ambient motion"
	}
	return "Slow cinematic camera push-in on " + subject + ", subtle ambient motion"
}
