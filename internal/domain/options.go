package domain

import "fmt"

// VideoPreset selects the look applied by the video enhancement stage.
type VideoPreset string

const (
	VideoPresetCinematic VideoPreset = "cinematic"
	VideoPresetVivid     VideoPreset = "vivid"
	VideoPresetClean     VideoPreset = "clean"
	VideoPresetHDR       VideoPreset = "hdr"
)

// AudioPreset selects the tuning applied by the audio enhancement stage.
type AudioPreset string

const (
	AudioPresetBalanced AudioPreset = "balanced"
	AudioPresetVoice    AudioPreset = "voice"
	AudioPresetMusic    AudioPreset = "music"
	AudioPresetPodcast  AudioPreset = "podcast"
)

// ParseVideoPreset validates a submitted preset name. An empty value falls
// back to the default; anything else unknown is a validation error.
func ParseVideoPreset(s string) (VideoPreset, error) {
	if s == "" {
		return VideoPresetCinematic, nil
	}
	switch p := VideoPreset(s); p {
	case VideoPresetCinematic, VideoPresetVivid, VideoPresetClean, VideoPresetHDR:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown video_preset %q", ErrValidation, s)
}

// ParseAudioPreset validates a submitted preset name. An empty value falls
// back to the default; anything else unknown is a validation error.
func ParseAudioPreset(s string) (AudioPreset, error) {
	if s == "" {
		return AudioPresetBalanced, nil
	}
	switch p := AudioPreset(s); p {
	case AudioPresetBalanced, AudioPresetVoice, AudioPresetMusic, AudioPresetPodcast:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown audio_preset %q", ErrValidation, s)
}

// Options is the validated, normalized request configuration. Immutable
// after job creation; the stage plan is recomputed deterministically from it.
type Options struct {
	RemoveWatermark bool
	EnhanceVideo    bool
	EnhanceAudio    bool
	VideoPreset     VideoPreset
	AudioPreset     AudioPreset
}

// DefaultOptions mirrors the submission form defaults: every toggle on,
// cinematic video, balanced audio.
func DefaultOptions() Options {
	return Options{
		RemoveWatermark: true,
		EnhanceVideo:    true,
		EnhanceAudio:    true,
		VideoPreset:     VideoPresetCinematic,
		AudioPreset:     AudioPresetBalanced,
	}
}
