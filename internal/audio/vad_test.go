package audio

import (
	"testing"
)

func TestVADDetector_Speech(t *testing.T) {
	vad := NewVADDetector(&VADConfig{Threshold: 0.8, SilenceFrames: 3})

	for i := 0; i < 5; i++ {
		isSpeaking, speechStarted, speechEnded := vad.ProcessProbability(0.95)
		if !isSpeaking {
			t.Errorf("Expected speech on frame %d", i)
		}
		if speechStarted != (i == 0) {
			t.Errorf("Frame %d: speechStarted = %v", i, speechStarted)
		}
		if speechEnded {
			t.Errorf("Frame %d: unexpected speech end", i)
		}
	}
}

func TestVADDetector_Silence(t *testing.T) {
	vad := NewVADDetector(&VADConfig{Threshold: 0.8, SilenceFrames: 3})

	for i := 0; i < 10; i++ {
		isSpeaking, speechStarted, speechEnded := vad.ProcessProbability(0.1)
		if isSpeaking || speechStarted || speechEnded {
			t.Errorf("Expected silence on frame %d", i)
		}
	}
}

func TestVADDetector_ThresholdIsInclusive(t *testing.T) {
	vad := NewVADDetector(&VADConfig{Threshold: 0.8, SilenceFrames: 1})

	if !vad.IsVoiced(0.8) {
		t.Error("Expected probability equal to threshold to be voiced")
	}
	if vad.IsVoiced(0.79) {
		t.Error("Expected probability below threshold to be unvoiced")
	}
}

func TestVADDetector_SpeechToSilence(t *testing.T) {
	vad := NewVADDetector(&VADConfig{Threshold: 0.8, SilenceFrames: 3})

	vad.ProcessProbability(0.9)

	// Hangover keeps speech alive for SilenceFrames-1 unvoiced frames
	for i := 0; i < 2; i++ {
		isSpeaking, _, speechEnded := vad.ProcessProbability(0.2)
		if !isSpeaking || speechEnded {
			t.Errorf("Expected speech to continue during hangover frame %d", i)
		}
	}

	isSpeaking, _, speechEnded := vad.ProcessProbability(0.2)
	if isSpeaking {
		t.Error("Expected speech to have ended")
	}
	if !speechEnded {
		t.Error("Expected speechEnded on the last hangover frame")
	}
}

func TestVADDetector_HangoverResetsOnVoice(t *testing.T) {
	vad := NewVADDetector(&VADConfig{Threshold: 0.8, SilenceFrames: 3})

	vad.ProcessProbability(0.9)
	vad.ProcessProbability(0.1)
	vad.ProcessProbability(0.1)
	if _, started, _ := vad.ProcessProbability(0.9); started {
		t.Error("Expected a voiced frame inside the hangover to continue speech, not restart it")
	}

	vad.ProcessProbability(0.1)
	vad.ProcessProbability(0.1)
	if !vad.IsSpeaking() {
		t.Error("Expected silence counter to restart after a voiced frame")
	}
}

func TestVADDetector_Reset(t *testing.T) {
	vad := NewVADDetector(nil)

	vad.ProcessProbability(0.99)
	if !vad.IsSpeaking() {
		t.Fatal("Expected speech before reset")
	}

	vad.Reset()
	if vad.IsSpeaking() {
		t.Error("Expected no speech after reset")
	}
	if _, started, _ := vad.ProcessProbability(0.99); !started {
		t.Error("Expected speech to start again after reset")
	}
}

func TestDefaultVADConfig(t *testing.T) {
	config := DefaultVADConfig()
	if config.Threshold != 0.8 {
		t.Errorf("Expected default threshold 0.8, got %f", config.Threshold)
	}
	if config.SilenceFrames != 10 {
		t.Errorf("Expected default silence frames 10, got %d", config.SilenceFrames)
	}
}
