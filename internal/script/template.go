package script

// MinSectionSeconds is the floor applied when rescaling section durations;
// a beat shorter than this cannot carry a narrated sentence.
const MinSectionSeconds = 2

type templateSection struct {
	kind    Kind
	seconds int
}

// Template is a fixed per-style section plan. The nominal durations describe
// the canonical pacing; Allocate rescales them to a requested total.
type Template struct {
	Name       string
	Tone       string
	Vocabulary string
	sections   []templateSection
}

var templates = map[Style]Template{
	StyleEducational: {
		Name:       "educational",
		Tone:       "profesional pero accesible",
		Vocabulary: "técnico pero explicado",
		sections: []templateSection{
			{KindHook, 3},
			{KindIntro, 5},
			{KindMainContent, 20},
			{KindExample, 7},
			{KindRecap, 3},
			{KindCallToAction, 2},
		},
	},
	StyleCasual: {
		Name:       "casual",
		Tone:       "conversacional y amigable",
		Vocabulary: "cotidiano y simple",
		sections: []templateSection{
			{KindHook, 4},
			{KindIntro, 6},
			{KindMainContent, 18},
			{KindTips, 5},
			{KindOutro, 7},
		},
	},
	StyleProfessional: {
		Name:       "professional",
		Tone:       "formal y autorativo",
		Vocabulary: "técnico especializado",
		sections: []templateSection{
			{KindIntro, 3},
			{KindOverview, 4},
			{KindMainContent, 22},
			{KindBestPractices, 6},
			{KindConclusion, 5},
		},
	},
}

// TemplateFor returns the template for the style, falling back to the
// educational template for styles it does not know.
func TemplateFor(style Style) Template {
	if t, ok := templates[style]; ok {
		return t
	}
	return templates[StyleEducational]
}

// Allocate rescales the template's nominal durations proportionally to the
// target total. Each section keeps at least MinSectionSeconds; fractional
// seconds are truncated, so the allocated sum may drift below the target.
// The drift is accepted rather than corrected.
func (t Template) Allocate(targetSeconds int) []Section {
	nominal := 0
	for _, s := range t.sections {
		nominal += s.seconds
	}

	ratio := float64(targetSeconds) / float64(nominal)
	sections := make([]Section, 0, len(t.sections))
	for _, s := range t.sections {
		d := int(float64(s.seconds) * ratio)
		if d < MinSectionSeconds {
			d = MinSectionSeconds
		}
		sections = append(sections, Section{Kind: s.kind, Duration: d})
	}
	return sections
}
