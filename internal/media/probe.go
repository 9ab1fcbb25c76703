package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeDuration reads a media file's duration in seconds with ffprobe.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmdPath, err := exec.LookPath("ffprobe")
	if err != nil {
		return 0, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, cmdPath, probeDurationArgs(path)...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("run ffprobe: %w", err)
	}

	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probeResult); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	dur, err := strconv.ParseFloat(probeResult.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probeResult.Format.Duration, err)
	}
	return dur, nil
}

func probeDurationArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
}
