package service

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/avelume/tutorialcast/internal/fault"
	"github.com/avelume/tutorialcast/internal/script"
)

// TopicEntry is one batch item from the topics file.
type TopicEntry struct {
	Topic    string `yaml:"topic"`
	Style    string `yaml:"style"`
	Duration int    `yaml:"duration"`
	Output   string `yaml:"output"`
}

type topicsFile struct {
	Topics []TopicEntry `yaml:"topics"`
}

// LoadTopics reads and validates the batch topics YAML file.
func LoadTopics(path string) ([]TopicEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.ErrConfig, "read topics file", err).
			WithContext("path", path)
	}

	var parsed topicsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fault.Wrap(fault.ErrConfig, "parse topics file", err).
			WithContext("path", path)
	}
	if len(parsed.Topics) == 0 {
		return nil, fault.New(fault.ErrConfig, "topics file has no entries").
			WithContext("path", path)
	}

	for i, entry := range parsed.Topics {
		if strings.TrimSpace(entry.Topic) == "" {
			return nil, fault.New(fault.ErrConfig, fmt.Sprintf("topic entry %d has no topic", i))
		}
		if entry.Duration == 0 {
			parsed.Topics[i].Duration = 30
		}
		if entry.Style == "" {
			parsed.Topics[i].Style = string(script.StyleEducational)
		}
	}
	return parsed.Topics, nil
}
