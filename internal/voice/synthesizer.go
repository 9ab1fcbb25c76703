package voice

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/text/language"

	"github.com/avelume/tutorialcast/internal/fault"
	"github.com/avelume/tutorialcast/internal/media"
	"github.com/avelume/tutorialcast/pkg/log"
)

// maxNarrationRunes bounds what a single synthesis request may carry.
const maxNarrationRunes = 500

const wavFileName = "narration.wav"

// Synthesizer turns narration text into a mono 16-bit PCM WAV file.
type Synthesizer struct {
	generator   WaveformGenerator
	preset      string
	defaultLang language.Tag
}

func NewSynthesizer(generator WaveformGenerator, preset string, defaultLang language.Tag) *Synthesizer {
	return &Synthesizer{
		generator:   generator,
		preset:      preset,
		defaultLang: defaultLang,
	}
}

// Synthesize prepares the narration for speech, calls the voice collaborator
// and writes the waveform into dir as a WAV file.
func (s *Synthesizer) Synthesize(ctx context.Context, narration, dir string) (media.AudioAsset, error) {
	text := PrepareText(narration)
	if text == "" {
		return media.AudioAsset{}, fault.New(fault.ErrSynthesis, "narration text is empty")
	}

	preset := PresetFor(text, s.preset, s.defaultLang)
	log.Debug("synthesizing %d characters with preset %s", len(text), preset)

	samples, sampleRate, err := s.generator.Synthesize(ctx, text, preset)
	if err != nil {
		return media.AudioAsset{}, fault.Wrap(fault.ErrSynthesis, "voice synthesis failed", err)
	}

	path := filepath.Join(dir, wavFileName)
	if err := writeWAV(path, samples, sampleRate); err != nil {
		return media.AudioAsset{}, fault.Wrap(fault.ErrSynthesis, "write narration audio", err).
			WithContext("path", path)
	}

	duration := float64(len(samples)) / float64(sampleRate)
	log.Info("narration audio written to %s (%.1fs)", path, duration)
	return media.AudioAsset{Path: path, Duration: duration}, nil
}

// PrepareText trims the narration, widens punctuation into pacing pauses and
// hard-truncates overlong input.
func PrepareText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '.', ',', ':':
			b.WriteByte(' ')
		}
	}
	text = strings.Join(strings.Fields(b.String()), " ")

	runes := []rune(text)
	if len(runes) > maxNarrationRunes {
		text = string(runes[:maxNarrationRunes]) + "..."
	}
	return text
}

// writeWAV encodes normalized float samples as single-channel 16-bit PCM.
func writeWAV(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, sample := range samples {
		scaled := sample * 32767
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		data[i] = int(int16(math.Round(scaled)))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav file: %w", err)
	}
	return nil
}
