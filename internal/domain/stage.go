package domain

// StageKind identifies one discrete processing step applied to a file.
type StageKind string

const (
	StageWatermarkRemove StageKind = "watermark_remove"
	StageVideoEnhance    StageKind = "video_enhance"
	StageAudioEnhance    StageKind = "audio_enhance"
	// StageFinalize re-encodes the working file into the delivery format.
	// It is always the last stage and doubles as the identity pass when
	// every toggle is off, so every job produces an output.
	StageFinalize StageKind = "finalize"
)

// VideoParams carries the look parameters for a video enhancement stage.
type VideoParams struct {
	Sharpen    float64
	Contrast   float64
	Saturation float64
	Brightness float64
}

// AudioParams carries the tuning parameters for an audio enhancement stage.
type AudioParams struct {
	NoiseReduction float64
	Normalize      bool
	Clarity        bool
	BassBoost      int
	TrebleBoost    int
}

// Stage is one descriptor in a compiled stage plan. Only the parameter set
// matching the kind is populated.
type Stage struct {
	Kind  StageKind
	Step  string
	Video VideoParams
	Audio AudioParams
}
