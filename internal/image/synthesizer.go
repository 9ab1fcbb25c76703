package image

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/avelume/tutorialcast/internal/fault"
	"github.com/avelume/tutorialcast/internal/media"
	"github.com/avelume/tutorialcast/pkg/log"
)

const (
	frameWidth  = 1280
	frameHeight = 720

	qualitySuffix = "high quality, detailed, professional photography, well lit, clear"
	cookingSuffix = "kitchen setting, food photography, cooking tutorial style"
)

// cookingKeywords mark prompts that get the food photography treatment.
var cookingKeywords = []string{"cocina", "receta", "comida", "ingredientes"}

// Synthesizer turns a section's visual description into a frame-sized PNG.
type Synthesizer struct {
	generator Generator
}

func NewSynthesizer(generator Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Synthesize fetches one image for a section, resamples it to the video frame
// size and saves it into dir as step_<ordinal>.png.
func (s *Synthesizer) Synthesize(ctx context.Context, visual, topic string, ordinal int, dir string) (media.ImageAsset, error) {
	prompt := EnhancePrompt(visual, topic)
	seed := seedFor(ordinal)
	log.Debug("generating image %d with seed %d: %s", ordinal, seed, prompt)

	data, err := s.generator.Generate(ctx, prompt, seed)
	if err != nil {
		return media.ImageAsset{}, fault.Wrap(fault.ErrSynthesis, "image generation failed", err).
			WithContext("ordinal", ordinal)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return media.ImageAsset{}, fault.Wrap(fault.ErrSynthesis, "decode generated image", err).
			WithContext("ordinal", ordinal)
	}
	img = imaging.Resize(img, frameWidth, frameHeight, imaging.Lanczos)

	path := filepath.Join(dir, fmt.Sprintf("step_%d.png", ordinal))
	if err := imaging.Save(img, path); err != nil {
		return media.ImageAsset{}, fault.Wrap(fault.ErrSynthesis, "save generated image", err).
			WithContext("path", path)
	}

	return media.ImageAsset{Path: path, Ordinal: ordinal}, nil
}

// EnhancePrompt appends style guidance to a raw visual description. Cooking
// topics get food photography styling ahead of the generic quality suffix.
func EnhancePrompt(visual, topic string) string {
	prompt := strings.TrimSpace(visual)

	haystack := strings.ToLower(prompt + " " + topic)
	for _, keyword := range cookingKeywords {
		if strings.Contains(haystack, keyword) {
			prompt = prompt + ", " + cookingSuffix
			break
		}
	}

	return prompt + ", " + qualitySuffix
}

// seedFor keeps image generation deterministic per section position.
func seedFor(ordinal int) int {
	return ordinal*42 + 7
}
