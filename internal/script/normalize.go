package script

import (
	"regexp"
	"strings"
)

// WordsPerSecond is the assumed narration pace used to size section text.
const WordsPerSecond = 2.5

// disallowed matches everything outside letters, digits, underscore,
// whitespace and basic sentence punctuation. Unicode classes keep accented
// Spanish text intact while stripping emoji and markup leftovers.
var disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?:;]`)

const elaboration = " Esto es fundamental para entender el concepto correctamente."

// Normalize cleans generated narration and fits it to the section's
// allocated seconds: strips stray characters, truncates text that overruns
// the word budget (seconds × WordsPerSecond), pads text that falls under
// 70% of it with a fixed elaboration sentence, and guarantees terminal
// punctuation. Returns the final text and its word count.
func Normalize(text string, seconds int) (string, int) {
	text = strip(text)

	words := strings.Fields(text)
	targetWords := int(float64(seconds) * WordsPerSecond)

	switch {
	case len(words) > targetWords:
		text = strings.Join(words[:targetWords], " ")
	case float64(len(words)) < float64(targetWords)*0.7:
		text += elaboration
	}

	return punctuate(text)
}

// Clean strips stray characters and guarantees terminal punctuation without
// fitting the text to a word budget. Fallback sentences go through here so a
// short section never loses the topic to truncation.
func Clean(text string) (string, int) {
	return punctuate(strip(text))
}

func strip(text string) string {
	return strings.TrimSpace(disallowed.ReplaceAllString(text, ""))
}

func punctuate(text string) (string, int) {
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	text = strings.TrimSpace(text)
	return text, len(strings.Fields(text))
}
