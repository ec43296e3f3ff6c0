// Package pipeline compiles validated submission options into the ordered
// stage plan the scheduler executes. Compilation is deterministic, so a plan
// never needs to be stored with its job.
package pipeline

import (
	"fmt"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

// Compile maps options to an ordered list of stage descriptors. Watermark
// removal precedes video enhancement; audio enhancement follows the video
// stages so single-worker progress stays monotone; a finalize pass always
// closes the plan and carries the identity case when everything is off.
func Compile(opts domain.Options) []domain.Stage {
	var plan []domain.Stage
	if opts.RemoveWatermark {
		plan = append(plan, domain.Stage{
			Kind: domain.StageWatermarkRemove,
			Step: "Removing watermark",
		})
	}
	if opts.EnhanceVideo {
		plan = append(plan, domain.Stage{
			Kind:  domain.StageVideoEnhance,
			Step:  fmt.Sprintf("Enhancing video (%s)", opts.VideoPreset),
			Video: videoParams(opts.VideoPreset),
		})
	}
	if opts.EnhanceAudio {
		plan = append(plan, domain.Stage{
			Kind:  domain.StageAudioEnhance,
			Step:  fmt.Sprintf("Enhancing audio (%s)", opts.AudioPreset),
			Audio: audioParams(opts.AudioPreset),
		})
	}
	plan = append(plan, domain.Stage{
		Kind: domain.StageFinalize,
		Step: "Encoding output",
	})
	return plan
}

// videoParams returns the look parameters for a preset. The preset set is
// closed; submission validation guarantees no other value reaches here.
func videoParams(p domain.VideoPreset) domain.VideoParams {
	switch p {
	case domain.VideoPresetCinematic:
		return domain.VideoParams{Sharpen: 0.3, Contrast: 1.1, Saturation: 0.95, Brightness: 0.98}
	case domain.VideoPresetVivid:
		return domain.VideoParams{Sharpen: 0.6, Contrast: 1.15, Saturation: 1.3, Brightness: 1.02}
	case domain.VideoPresetClean:
		return domain.VideoParams{Sharpen: 0.2, Contrast: 1.0, Saturation: 1.0, Brightness: 1.0}
	case domain.VideoPresetHDR:
		return domain.VideoParams{Sharpen: 0.5, Contrast: 1.2, Saturation: 1.2, Brightness: 1.05}
	default:
		panic(fmt.Sprintf("pipeline: unvalidated video preset %q", p))
	}
}

func audioParams(p domain.AudioPreset) domain.AudioParams {
	switch p {
	case domain.AudioPresetBalanced:
		return domain.AudioParams{NoiseReduction: 0.3, Normalize: true, Clarity: true}
	case domain.AudioPresetVoice:
		return domain.AudioParams{NoiseReduction: 0.5, Normalize: true, Clarity: true, BassBoost: -2, TrebleBoost: 3}
	case domain.AudioPresetMusic:
		return domain.AudioParams{NoiseReduction: 0.1, Normalize: true, BassBoost: 2, TrebleBoost: 1}
	case domain.AudioPresetPodcast:
		return domain.AudioParams{NoiseReduction: 0.6, Normalize: true, Clarity: true, BassBoost: 1, TrebleBoost: 2}
	default:
		panic(fmt.Sprintf("pipeline: unvalidated audio preset %q", p))
	}
}
