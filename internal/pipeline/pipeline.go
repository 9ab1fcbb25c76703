package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avelume/tutorialcast/internal/fault"
	"github.com/avelume/tutorialcast/internal/media"
	"github.com/avelume/tutorialcast/internal/script"
	"github.com/avelume/tutorialcast/pkg/file"
	"github.com/avelume/tutorialcast/pkg/log"
)

// Request describes one video to produce.
type Request struct {
	Topic      string
	Style      script.Style
	Duration   int
	OutputName string
}

// Planner produces the script a run is built from.
type Planner interface {
	Plan(ctx context.Context, topic string, style script.Style, targetDuration int) (script.Script, error)
}

// NarrationSynthesizer turns narration text into an audio asset under dir.
type NarrationSynthesizer interface {
	Synthesize(ctx context.Context, narration, dir string) (media.AudioAsset, error)
}

// VisualSynthesizer produces one image per script section under dir.
type VisualSynthesizer interface {
	Synthesize(ctx context.Context, visual, topic string, ordinal int, dir string) (media.ImageAsset, error)
}

// Assembler joins audio and images into the final video.
type Assembler interface {
	Assemble(ctx context.Context, audio media.AudioAsset, images []media.ImageAsset, s script.Script, outputName string) (media.VideoOutput, error)
}

// Pipeline drives a full run: plan, synthesize narration and visuals in
// parallel, assemble.
type Pipeline struct {
	planner          Planner
	voice            NarrationSynthesizer
	image            VisualSynthesizer
	assembler        Assembler
	tempDir          string
	imageConcurrency int
}

func New(planner Planner, voice NarrationSynthesizer, image VisualSynthesizer, assembler Assembler, tempDir string, imageConcurrency int) *Pipeline {
	if imageConcurrency < 1 {
		imageConcurrency = 1
	}
	return &Pipeline{
		planner:          planner,
		voice:            voice,
		image:            image,
		assembler:        assembler,
		tempDir:          tempDir,
		imageConcurrency: imageConcurrency,
	}
}

// Run executes the four stages for one request. Intermediate assets live in a
// per-run temp workspace that is removed on both success and failure.
func (p *Pipeline) Run(ctx context.Context, req Request) (media.VideoOutput, error) {
	runID := uuid.NewString()[:8]
	workDir := filepath.Join(p.tempDir, runID)
	audioDir := filepath.Join(workDir, "audio")
	imagesDir := filepath.Join(workDir, "images")

	for _, dir := range []string{audioDir, imagesDir} {
		if err := file.EnsureDir(dir); err != nil {
			return media.VideoOutput{}, stageFailure("setup", runID, err)
		}
	}
	defer p.cleanup(workDir, runID)

	log.Info("run %s: planning script for %q (%s, %ds)", runID, req.Topic, req.Style, req.Duration)
	s, err := p.planner.Plan(ctx, req.Topic, req.Style, req.Duration)
	if err != nil {
		return media.VideoOutput{}, stageFailure("plan", runID, err)
	}

	var audio media.AudioAsset
	images := make([]media.ImageAsset, len(s.Sections))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		audio, err = p.voice.Synthesize(groupCtx, s.Narration, audioDir)
		if err != nil {
			return stageFailure("narration", runID, err)
		}
		return nil
	})
	group.Go(func() error {
		if err := p.synthesizeImages(groupCtx, s, imagesDir, images); err != nil {
			return stageFailure("visuals", runID, err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return media.VideoOutput{}, err
	}

	log.Info("run %s: assembling %d images with %.1fs narration", runID, len(images), audio.Duration)
	output, err := p.assembler.Assemble(ctx, audio, images, s, outputName(req))
	if err != nil {
		return media.VideoOutput{}, stageFailure("assemble", runID, err)
	}

	log.Info("run %s: video ready at %s", runID, output.Path)
	return output, nil
}

// synthesizeImages fans out one generation per section, bounded by the
// configured concurrency. Results land at their section ordinal.
func (p *Pipeline) synthesizeImages(ctx context.Context, s script.Script, dir string, out []media.ImageAsset) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.imageConcurrency)

	for i, section := range s.Sections {
		group.Go(func() error {
			asset, err := p.image.Synthesize(ctx, section.Visual, s.Topic, i, dir)
			if err != nil {
				return err
			}
			out[i] = asset
			return nil
		})
	}
	return group.Wait()
}

func (p *Pipeline) cleanup(workDir, runID string) {
	if err := file.RemoveTree(workDir); err != nil {
		log.Warn("run %s: temp cleanup failed: %v", runID, err)
	}
}

// stageFailure consolidates any stage error into a single tagged fault.
func stageFailure(stage, runID string, err error) error {
	var f *fault.Error
	if !errors.As(err, &f) {
		f = fault.Wrap(fault.KindOf(err), fmt.Sprintf("%s stage failed", stage), err)
	}
	return f.WithContext("stage", stage).WithContext("run", runID)
}

func outputName(req Request) string {
	name := strings.TrimSpace(req.OutputName)
	if name != "" {
		return name
	}
	return slugify(req.Topic)
}

var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// slugify derives a filesystem-safe output name from the topic.
func slugify(topic string) string {
	folded := accentFold.Replace(strings.ToLower(strings.TrimSpace(topic)))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return "tutorial"
	}
	return slug
}
