package script

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/avelume/tutorialcast/pkg/file"
)

// CategoryRule maps a category name to the keywords that select it. Rules
// are evaluated in order and the first keyword hit wins, so the slice form
// keeps classification deterministic.
type CategoryRule struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// DefaultCategory is assigned when no rule matches the topic.
const DefaultCategory = "general"

func defaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Name: "programming", Keywords: []string{"código", "programación", "desarrollo", "software"}},
		{Name: "design", Keywords: []string{"diseño", "ui", "ux", "gráfico"}},
		{Name: "business", Keywords: []string{"negocio", "empresa", "marketing", "ventas"}},
	}
}

// Classifier assigns a content category to a topic by keyword lookup.
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier builds a classifier over the built-in rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultCategoryRules()}
}

// knowledgeBase is the on-disk shape of a custom rule table.
type knowledgeBase struct {
	Categories []CategoryRule `json:"categories"`
}

// LoadClassifier reads the rule table from a knowledge-base JSON file. A
// missing file is bootstrapped with the built-in rules so operators have a
// template to edit; an empty path means built-ins only, no file touched.
func LoadClassifier(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(), nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		kb := knowledgeBase{Categories: defaultCategoryRules()}
		out, merr := json.MarshalIndent(kb, "", "  ")
		if merr != nil {
			return nil, fmt.Errorf("encode default knowledge base: %w", merr)
		}
		if werr := file.WriteAtomic(path, out, 0o644); werr != nil {
			return nil, fmt.Errorf("bootstrap knowledge base %s: %w", path, werr)
		}
		return NewClassifier(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read knowledge base %s: %w", path, err)
	}

	var kb knowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %w", path, err)
	}
	if len(kb.Categories) == 0 {
		return NewClassifier(), nil
	}
	return &Classifier{rules: kb.Categories}, nil
}

// Classify returns the first category whose keyword occurs in the topic,
// comparing case-insensitively, or DefaultCategory when none does. Keywords
// of three runes or fewer ("ui", "ux") only match whole words; a substring
// match would fire inside ordinary Spanish words like "cualquiera".
func (c *Classifier) Classify(topic string) string {
	lower := strings.ToLower(topic)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if utf8.RuneCountInString(kw) <= 3 {
				if slices.Contains(words, kw) {
					return rule.Name
				}
				continue
			}
			if strings.Contains(lower, kw) {
				return rule.Name
			}
		}
	}
	return DefaultCategory
}
