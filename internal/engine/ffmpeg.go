// Package engine implements the processing engine the scheduler drives. Each
// stage is one ffmpeg invocation over a local working file; the media math
// itself lives in the filter graphs, which keeps the engine a replaceable
// collaborator behind domain.Engine.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

// FFmpeg shells out to an ffmpeg binary. Safe for concurrent use across
// distinct jobs; every invocation gets its own process.
type FFmpeg struct {
	binPath string
	logger  zerolog.Logger
}

// NewFFmpeg creates an engine using the given ffmpeg binary path.
func NewFFmpeg(binPath string, logger zerolog.Logger) *FFmpeg {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpeg{binPath: binPath, logger: logger}
}

// Run applies one stage, honoring ctx's deadline. The returned error carries
// the tail of ffmpeg's stderr as the failure detail.
func (e *FFmpeg) Run(ctx context.Context, stage domain.Stage, inputPath, outputPath string) error {
	args := argsForStage(stage, inputPath, outputPath)
	cmd := exec.CommandContext(ctx, e.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug().Str("stage", string(stage.Kind)).Strs("args", args).Msg("engine: running ffmpeg")
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("engine: stage %s: %w", stage.Kind, ctxErr)
		}
		return fmt.Errorf("engine: stage %s: %w: %s", stage.Kind, err, stderrTail(stderr.String()))
	}
	return nil
}

// argsForStage builds the ffmpeg argument list for a stage. Pure so the
// filter graphs stay testable without a binary.
func argsForStage(stage domain.Stage, inputPath, outputPath string) []string {
	args := []string{"-y", "-i", inputPath}

	switch stage.Kind {
	case domain.StageWatermarkRemove:
		// Blur the bottom-right region where the Sora mark sits and
		// composite it back over the frame.
		args = append(args,
			"-filter_complex",
			"[0:v]crop=iw*0.26:ih*0.12:iw*0.72:ih*0.86,avgblur=20[wm];[0:v][wm]overlay=W*0.72:H*0.86",
			"-c:a", "copy",
		)
	case domain.StageVideoEnhance:
		args = append(args, "-vf", videoFilter(stage.Video), "-c:a", "copy")
	case domain.StageAudioEnhance:
		args = append(args, "-af", audioFilter(stage.Audio), "-c:v", "copy")
	case domain.StageFinalize:
		args = append(args,
			"-c:v", "libx264",
			"-preset", "slow",
			"-crf", "18",
			"-c:a", "aac",
			"-b:a", "192k",
			"-movflags", "+faststart",
		)
	}

	return append(args, outputPath)
}

func videoFilter(p domain.VideoParams) string {
	var filters []string
	if p.Sharpen > 0 {
		filters = append(filters, fmt.Sprintf("unsharp=5:5:%.2f", p.Sharpen*1.5))
	}
	// ffmpeg's eq brightness is additive on a -1..1 scale, so the preset's
	// multiplier is recentered around zero.
	filters = append(filters, fmt.Sprintf("eq=contrast=%.2f:saturation=%.2f:brightness=%.2f",
		p.Contrast, p.Saturation, p.Brightness-1))
	return strings.Join(filters, ",")
}

func audioFilter(p domain.AudioParams) string {
	var filters []string
	if p.Clarity {
		filters = append(filters, "highpass=f=80")
	}
	if p.NoiseReduction > 0 {
		// afftdn's nr is in dB (0.01..97); map the 0..1 preset knob.
		filters = append(filters, fmt.Sprintf("afftdn=nr=%.0f", p.NoiseReduction*24))
	}
	if p.BassBoost != 0 {
		filters = append(filters, fmt.Sprintf("bass=g=%d", p.BassBoost))
	}
	if p.TrebleBoost != 0 {
		filters = append(filters, fmt.Sprintf("treble=g=%d", p.TrebleBoost))
	}
	if p.Normalize {
		filters = append(filters, "loudnorm")
	}
	if len(filters) == 0 {
		filters = append(filters, "anull")
	}
	return strings.Join(filters, ",")
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}

// Probe checks the binary is invocable, for a startup sanity log.
func (e *FFmpeg) Probe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, e.binPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("engine: ffmpeg not available at %q: %w", e.binPath, err)
	}
	return nil
}

var _ domain.Engine = (*FFmpeg)(nil)
