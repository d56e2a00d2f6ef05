package audio

// VADConfig holds configuration for turning per-frame voice probabilities
// into speech segments
type VADConfig struct {
	Threshold     float32 // Probability at or above which a frame counts as voiced
	SilenceFrames int     // Number of consecutive unvoiced frames that end speech
}

// DefaultVADConfig returns a default VAD configuration
func DefaultVADConfig() *VADConfig {
	return &VADConfig{
		Threshold:     0.8,
		SilenceFrames: 10, // ~320ms at 512 samples / 16kHz
	}
}

// VADDetector tracks speech state across frames
type VADDetector struct {
	config         *VADConfig
	silenceCounter int
	isSpeaking     bool
}

// NewVADDetector creates a new VAD detector
func NewVADDetector(config *VADConfig) *VADDetector {
	if config == nil {
		config = DefaultVADConfig()
	}
	return &VADDetector{
		config: config,
	}
}

// ProcessProbability feeds the voice probability of one frame
// Returns: (isSpeaking, speechStarted, speechEnded)
func (v *VADDetector) ProcessProbability(p float32) (bool, bool, bool) {
	var speechStarted, speechEnded bool

	if v.IsVoiced(p) {
		v.silenceCounter = 0

		if !v.isSpeaking {
			speechStarted = true
			v.isSpeaking = true
		}
	} else {
		v.silenceCounter++

		if v.isSpeaking && v.silenceCounter >= v.config.SilenceFrames {
			speechEnded = true
			v.isSpeaking = false
			v.silenceCounter = 0
		}
	}

	return v.isSpeaking, speechStarted, speechEnded
}

// IsVoiced reports whether p reaches the threshold
func (v *VADDetector) IsVoiced(p float32) bool {
	return p >= v.config.Threshold
}

// Reset resets the VAD detector state
func (v *VADDetector) Reset() {
	v.silenceCounter = 0
	v.isSpeaking = false
}

// IsSpeaking returns whether speech is currently detected
func (v *VADDetector) IsSpeaking() bool {
	return v.isSpeaking
}
