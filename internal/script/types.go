package script

import (
	"strings"

	"github.com/avelume/tutorialcast/internal/fault"
)

// Style selects which section template shapes the script. Unknown styles
// are kept as-is for cache keying; template lookup falls back to educational.
type Style string

const (
	StyleEducational  Style = "educational"
	StyleCasual       Style = "casual"
	StyleProfessional Style = "professional"
)

// ParseStyle normalizes raw user input into a Style. Empty input means
// educational; anything else is trimmed and lowercased but preserved, so
// distinct unknown styles keep distinct cache fingerprints.
func ParseStyle(raw string) Style {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StyleEducational
	}
	return Style(s)
}

// Kind names the narrative role of one script section.
type Kind string

const (
	KindHook          Kind = "hook"
	KindIntro         Kind = "intro"
	KindMainContent   Kind = "main_content"
	KindExample       Kind = "example"
	KindRecap         Kind = "recap"
	KindCallToAction  Kind = "call_to_action"
	KindTips          Kind = "tips"
	KindOutro         Kind = "outro"
	KindOverview      Kind = "overview"
	KindBestPractices Kind = "best_practices"
	KindConclusion    Kind = "conclusion"
)

// Section is one narrated beat of the script. Duration is the seconds of
// narration allocated to it, never below 2.
type Section struct {
	Kind      Kind   `json:"kind"`
	Duration  int    `json:"allocated_duration"`
	Text      string `json:"text"`
	Visual    string `json:"visual_description"`
	WordCount int    `json:"word_count"`
}

type Metadata struct {
	WordCount            int    `json:"word_count"`
	EstimatedReadingTime int    `json:"estimated_reading_time"`
	Template             string `json:"template_used"`
}

// Script is the immutable output of planning: callers receive it by value
// and the planner never retains or mutates a returned script.
type Script struct {
	Topic          string    `json:"topic"`
	Style          Style     `json:"style"`
	TargetDuration int       `json:"target_duration"`
	Sections       []Section `json:"sections"`
	Narration      string    `json:"narration_text"`
	Category       string    `json:"category"`
	Metadata       Metadata  `json:"metadata"`
}

// Validate checks the structural invariants every planned script must hold.
func (s Script) Validate() error {
	if strings.TrimSpace(s.Topic) == "" {
		return fault.New(fault.ErrValidation, "script topic is empty")
	}
	if s.Style == "" {
		return fault.New(fault.ErrValidation, "script style is empty")
	}
	if len(s.Sections) == 0 {
		return fault.New(fault.ErrValidation, "script has no sections")
	}
	if strings.TrimSpace(s.Narration) == "" {
		return fault.New(fault.ErrValidation, "script narration is empty")
	}
	for i, sec := range s.Sections {
		if sec.Kind == "" {
			return fault.New(fault.ErrValidation, "section kind is empty").
				WithContext("section", i)
		}
		if sec.Duration < MinSectionSeconds {
			return fault.New(fault.ErrValidation, "section duration below minimum").
				WithContext("section", i).
				WithContext("duration", sec.Duration)
		}
		if strings.TrimSpace(sec.Text) == "" {
			return fault.New(fault.ErrValidation, "section text is empty").
				WithContext("section", i)
		}
	}
	return nil
}
