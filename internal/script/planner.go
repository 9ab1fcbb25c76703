package script

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/avelume/tutorialcast/internal/fault"
	"github.com/avelume/tutorialcast/pkg/log"
)

// Fingerprint derives the deterministic cache key for a planning request.
// The underscore-joined key string matches cache entries written by earlier
// releases, so existing caches stay valid.
func Fingerprint(topic string, style Style, targetDuration int) string {
	key := fmt.Sprintf("%s_%s_%d", topic, style, targetDuration)
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Cache is the planner's view of the script store. A nil Cache disables
// caching entirely.
type Cache interface {
	Get(ctx context.Context, fingerprint string, now time.Time) (Script, bool, error)
	Put(ctx context.Context, fingerprint string, now time.Time, s Script) error
}

// Planner turns a topic, style, and target duration into a Script. Safe for
// concurrent use; concurrent calls for the same fingerprint share one
// generation pass.
type Planner struct {
	cache      Cache
	generator  TextGenerator
	classifier *Classifier
	// timeout bounds each text-collaborator call, not the whole plan.
	timeout time.Duration

	group singleflight.Group
	now   func() time.Time
}

// NewPlanner builds a planner. generator may be nil: every section then uses
// its fallback sentence. cache may be nil: every call regenerates.
func NewPlanner(cache Cache, generator TextGenerator, classifier *Classifier, timeout time.Duration) *Planner {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Planner{
		cache:      cache,
		generator:  generator,
		classifier: classifier,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Plan returns the script for (topic, style, targetDuration), from cache
// when a fresh entry exists. The returned script is a value; callers may
// keep it without affecting later calls.
func (p *Planner) Plan(ctx context.Context, topic string, style Style, targetDuration int) (Script, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Script{}, fault.New(fault.ErrValidation, "topic is required")
	}
	if targetDuration < MinSectionSeconds {
		return Script{}, fault.New(fault.ErrValidation, "target duration too short").
			WithContext("target_duration", targetDuration)
	}

	fingerprint := Fingerprint(topic, style, targetDuration)

	if p.cache != nil {
		if cached, ok, err := p.cache.Get(ctx, fingerprint, p.now()); err == nil && ok {
			log.Debug("Script cache hit for %s", fingerprint)
			return cached, nil
		}
	}

	v, err, _ := p.group.Do(fingerprint, func() (any, error) {
		// Another caller may have finished while we queued.
		if p.cache != nil {
			if cached, ok, err := p.cache.Get(ctx, fingerprint, p.now()); err == nil && ok {
				return cached, nil
			}
		}
		return p.build(ctx, fingerprint, topic, style, targetDuration)
	})
	if err != nil {
		return Script{}, err
	}
	return v.(Script), nil
}

func (p *Planner) build(ctx context.Context, fingerprint, topic string, style Style, targetDuration int) (Script, error) {
	tpl := TemplateFor(style)
	sections := tpl.Allocate(targetDuration)
	category := p.classifier.Classify(topic)

	log.Info("Planning script for %q (style=%s, duration=%ds, category=%s)", topic, style, targetDuration, category)

	for i := range sections {
		sec := &sections[i]

		text, fromFallback := p.generateText(ctx, sec.Kind, topic, sec.Duration)
		if fromFallback {
			// Fallback sentences carry the topic verbatim; fitting them to
			// the word budget could truncate it away.
			sec.Text, sec.WordCount = Clean(text)
		} else {
			sec.Text, sec.WordCount = Normalize(text, sec.Duration)
		}
		sec.Visual = VisualFor(sec.Kind, topic, category)
	}

	texts := make([]string, len(sections))
	totalWords := 0
	for i, sec := range sections {
		texts[i] = sec.Text
		totalWords += sec.WordCount
	}

	s := Script{
		Topic:          topic,
		Style:          style,
		TargetDuration: targetDuration,
		Sections:       sections,
		Narration:      strings.Join(texts, " "),
		Category:       category,
		Metadata: Metadata{
			WordCount:            totalWords,
			EstimatedReadingTime: int(float64(totalWords) / WordsPerSecond),
			Template:             tpl.Name,
		},
	}

	if err := s.Validate(); err != nil {
		return Script{}, err
	}

	// The cache only ever sees fully built scripts; a failed run cannot
	// leave a partial entry.
	if p.cache != nil {
		if err := p.cache.Put(ctx, fingerprint, p.now(), s); err != nil {
			log.Warn("Failed to cache script %s: %v", fingerprint, err)
		}
	}

	return s, nil
}

// generateText asks the collaborator for section text and falls back to the
// fixed per-kind sentence on any failure. A single section never fails the
// plan. The second return reports whether the fallback was used.
func (p *Planner) generateText(ctx context.Context, kind Kind, topic string, seconds int) (string, bool) {
	if p.generator == nil {
		return FallbackFor(kind, topic), true
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	maxWords := int(float64(seconds) * WordsPerSecond)
	text, err := p.generator.Generate(callCtx, InstructionFor(kind, topic, seconds), maxWords)
	if err != nil {
		cause := fault.Wrap(fault.ErrGeneration, "text collaborator failed", err).
			WithContext("section", string(kind))
		log.Warn("Using fallback text for section %s: %v", kind, cause)
		return FallbackFor(kind, topic), true
	}
	if strings.TrimSpace(text) == "" {
		return FallbackFor(kind, topic), true
	}
	return text, false
}
