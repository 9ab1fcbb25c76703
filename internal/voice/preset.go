package voice

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DefaultPreset narrates in Spanish when detection gives nothing better.
const DefaultPreset = "v2/es_speaker_6"

var presetsByLanguage = map[language.Tag]string{
	language.Spanish:    "v2/es_speaker_6",
	language.English:    "v2/en_speaker_6",
	language.French:     "v2/fr_speaker_5",
	language.German:     "v2/de_speaker_6",
	language.Italian:    "v2/it_speaker_4",
	language.Portuguese: "v2/pt_speaker_3",
}

var langCodes = map[whatlanggo.Lang]language.Tag{
	whatlanggo.Spa: language.Spanish,
	whatlanggo.Eng: language.English,
	whatlanggo.Fra: language.French,
	whatlanggo.Deu: language.German,
	whatlanggo.Ita: language.Italian,
	whatlanggo.Por: language.Portuguese,
}

// PresetFor picks the voice preset for a narration text. An explicit preset
// always wins; otherwise the text language is detected and mapped, falling
// back to the configured default language and finally to Spanish. Detection
// is restricted to the languages the preset table covers; an open-world
// detect misreads short Spanish narration as unrelated languages.
func PresetFor(text, explicit string, defaultLang language.Tag) string {
	if explicit != "" {
		return explicit
	}

	whitelist := make(map[whatlanggo.Lang]bool, len(langCodes))
	for lang := range langCodes {
		whitelist[lang] = true
	}
	info := whatlanggo.DetectWithOptions(text, whatlanggo.Options{Whitelist: whitelist})
	if info.IsReliable() {
		if tag, ok := langCodes[info.Lang]; ok {
			if preset, ok := presetsByLanguage[tag]; ok {
				return preset
			}
		}
	}

	if preset, ok := presetsByLanguage[defaultLang]; ok {
		return preset
	}
	return DefaultPreset
}
