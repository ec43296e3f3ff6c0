package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

func TestArgsForStageFinalize(t *testing.T) {
	args := argsForStage(domain.Stage{Kind: domain.StageFinalize}, "in.mp4", "out.mp4")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-crf 18")
	assert.Contains(t, joined, "-movflags +faststart")
	assert.Equal(t, "out.mp4", args[len(args)-1])
	assert.Equal(t, []string{"-y", "-i", "in.mp4"}, args[:3])
}

func TestArgsForStageVideoKeepsAudioUntouched(t *testing.T) {
	stage := domain.Stage{
		Kind:  domain.StageVideoEnhance,
		Video: domain.VideoParams{Sharpen: 0.3, Contrast: 1.1, Saturation: 0.95, Brightness: 0.98},
	}
	args := argsForStage(stage, "in.mp4", "out.mp4")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-c:a copy")
	assert.Contains(t, joined, "unsharp=5:5:0.45")
	assert.Contains(t, joined, "eq=contrast=1.10:saturation=0.95:brightness=-0.02")
}

func TestArgsForStageAudioKeepsVideoUntouched(t *testing.T) {
	stage := domain.Stage{
		Kind:  domain.StageAudioEnhance,
		Audio: domain.AudioParams{NoiseReduction: 0.5, Normalize: true, Clarity: true, BassBoost: -2, TrebleBoost: 3},
	}
	args := argsForStage(stage, "in.mp4", "out.mp4")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-c:v copy")
	assert.Contains(t, joined, "highpass=f=80")
	assert.Contains(t, joined, "afftdn=nr=12")
	assert.Contains(t, joined, "bass=g=-2")
	assert.Contains(t, joined, "treble=g=3")
	assert.Contains(t, joined, "loudnorm")
}

func TestAudioFilterFallsBackToAnull(t *testing.T) {
	assert.Equal(t, "anull", audioFilter(domain.AudioParams{}))
}

func TestVideoFilterSkipsUnsharpWhenZero(t *testing.T) {
	f := videoFilter(domain.VideoParams{Contrast: 1, Saturation: 1, Brightness: 1})
	assert.NotContains(t, f, "unsharp")
	assert.Equal(t, "eq=contrast=1.00:saturation=1.00:brightness=0.00", f)
}

func TestStderrTailKeepsLastLines(t *testing.T) {
	out := stderrTail("a\nb\nc\nd\ne\nf")
	assert.Equal(t, "c | d | e | f", out)
}
