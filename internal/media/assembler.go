package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avelume/tutorialcast/internal/fault"
	"github.com/avelume/tutorialcast/internal/script"
	"github.com/avelume/tutorialcast/pkg/file"
	"github.com/avelume/tutorialcast/pkg/log"
)

const (
	// Output format is fixed: 24fps 1280x720 H.264/AAC.
	fps    = 24
	width  = 1280
	height = 720

	// zoomRate is the linear scale-up applied to every image clip, per
	// second of display time.
	zoomRate = 0.02

	// titleSeconds is how long the topic overlay stays on screen.
	titleSeconds = 3
)

// Assembler muxes the narration audio and the ordered section images into
// one video file. It shells out to ffmpeg; intermediate clips are written
// next to the source images and left for pipeline cleanup.
type Assembler struct {
	ffmpegCmd string
	videosDir string
}

func NewAssembler(videosDir string) *Assembler {
	return &Assembler{
		ffmpegCmd: "ffmpeg",
		videosDir: videosDir,
	}
}

// Assemble builds <videosDir>/<outputName>_tutorial.mp4. The audio duration
// is the timing authority: video time is split equally across images
// regardless of each section's allocated duration.
func (a *Assembler) Assemble(ctx context.Context, audio AudioAsset, images []ImageAsset, s script.Script, outputName string) (VideoOutput, error) {
	if len(images) == 0 {
		return VideoOutput{}, fault.New(fault.ErrAssembly, "no images to assemble")
	}
	if _, err := os.Stat(audio.Path); err != nil {
		return VideoOutput{}, fault.Wrap(fault.ErrAssembly, "audio file unreadable", err).
			WithContext("path", audio.Path)
	}

	totalDuration := audio.Duration
	if totalDuration <= 0 {
		probed, err := ProbeDuration(ctx, audio.Path)
		if err != nil {
			return VideoOutput{}, fault.Wrap(fault.ErrAssembly, "probe audio duration", err).
				WithContext("path", audio.Path)
		}
		totalDuration = probed
	}
	if totalDuration <= 0 {
		return VideoOutput{}, fault.New(fault.ErrAssembly, "audio has zero duration").
			WithContext("path", audio.Path)
	}

	ffmpegPath, err := exec.LookPath(a.ffmpegCmd)
	if err != nil {
		return VideoOutput{}, fault.Wrap(fault.ErrAssembly, "ffmpeg not found", err)
	}

	ordered := append([]ImageAsset(nil), images...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	perImage := splitDuration(totalDuration, len(ordered))
	workDir := filepath.Dir(ordered[0].Path)

	log.Info("Assembling %d image clips at %.2fs each (audio %.2fs)", len(ordered), perImage, totalDuration)

	clips := make([]string, len(ordered))
	for i, img := range ordered {
		clip := filepath.Join(workDir, fmt.Sprintf("clip_%03d.mp4", img.Ordinal))
		if err := a.renderClip(ctx, ffmpegPath, img.Path, clip, perImage); err != nil {
			return VideoOutput{}, fault.Wrap(fault.ErrAssembly, "render image clip", err).
				WithContext("ordinal", img.Ordinal)
		}
		clips[i] = clip
	}

	silent := filepath.Join(workDir, "sequence.mp4")
	if err := a.concatClips(ctx, ffmpegPath, clips, silent); err != nil {
		return VideoOutput{}, fault.Wrap(fault.ErrAssembly, "concatenate clips", err)
	}

	outPath := filepath.Join(a.videosDir, outputName+"_tutorial.mp4")
	if err := file.EnsureDir(a.videosDir); err != nil {
		return VideoOutput{}, fault.Wrap(fault.ErrAssembly, "create videos directory", err)
	}
	if err := a.muxFinal(ctx, ffmpegPath, silent, audio.Path, s.Topic, outPath); err != nil {
		return VideoOutput{}, fault.Wrap(fault.ErrAssembly, "encode final video", err)
	}

	return VideoOutput{
		Path:        outPath,
		Fingerprint: script.Fingerprint(s.Topic, s.Style, s.TargetDuration),
	}, nil
}

// splitDuration divides the audio duration equally across images.
func splitDuration(total float64, imageCount int) float64 {
	return total / float64(imageCount)
}

// renderClip turns one still image into a silent clip with the continuous
// zoom effect.
func (a *Assembler) renderClip(ctx context.Context, ffmpegPath, imagePath, outPath string, seconds float64) error {
	cmd := exec.CommandContext(ctx, ffmpegPath, clipArgs(imagePath, outPath, seconds)...)
	return runQuiet(cmd)
}

func clipArgs(imagePath, outPath string, seconds float64) []string {
	totalFrames := int(seconds * fps)
	if totalFrames < 1 {
		totalFrames = 1
	}
	// Upscale before zoompan to keep sub-pixel panning smooth, then sample
	// back down to the output canvas.
	maxZoom := 1.0 + zoomRate*seconds
	zoomStep := zoomRate / fps
	filter := fmt.Sprintf(
		"scale=%d:%d,zoompan=z='min(zoom+%.6f,%.4f)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:fps=%d:s=%dx%d",
		width*2, height*2, zoomStep, maxZoom, totalFrames, fps, width, height,
	)
	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-vf", filter,
		"-t", fmt.Sprintf("%.3f", seconds),
		"-r", fmt.Sprintf("%d", fps),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	}
}

// concatClips joins the per-image clips in order with the concat demuxer.
func (a *Assembler) concatClips(ctx context.Context, ffmpegPath string, clips []string, outPath string) error {
	listFile := file.ReplaceExt(outPath, ".txt")
	lines := make([]string, len(clips))
	for i, clip := range clips {
		lines[i] = fmt.Sprintf("file '%s'", clip)
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, concatArgs(listFile, outPath)...)
	return runQuiet(cmd)
}

func concatArgs(listFile, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outPath,
	}
}

// muxFinal attaches the narration track and composites the title overlay
// over the first seconds of the sequence.
func (a *Assembler) muxFinal(ctx context.Context, ffmpegPath, videoPath, audioPath, title, outPath string) error {
	cmd := exec.CommandContext(ctx, ffmpegPath, muxArgs(videoPath, audioPath, title, outPath)...)
	return runQuiet(cmd)
}

func muxArgs(videoPath, audioPath, title, outPath string) []string {
	filter := fmt.Sprintf(
		"drawbox=x=0:y=0:w=iw:h=ih:color=black@0.6:t=fill:enable='lte(t,%d)',"+
			"drawtext=text='%s':fontcolor=white:fontsize=50:x=(w-text_w)/2:y=(h-text_h)/2:enable='lte(t,%d)'",
		titleSeconds, escapeDrawtext(title), titleSeconds,
	)
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-vf", filter,
		"-r", fmt.Sprintf("%d", fps),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	}
}

// escapeDrawtext escapes the characters the drawtext filter treats as
// syntax.
func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, ":", "\\:")
	return s
}

func runQuiet(cmd *exec.Cmd) error {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, tail(string(output), 400))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
