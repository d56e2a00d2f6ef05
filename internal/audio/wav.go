package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("not a valid WAV file")

// WAV is decoded 16-bit audio
// Multichannel files keep only the first channel
type WAV struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the length of the audio in seconds
func (w WAV) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// ReadWAV decodes a 16-bit PCM WAV file
func ReadWAV(path string) (WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAV{}, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return WAV{}, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	if d.BitDepth != 16 {
		return WAV{}, fmt.Errorf("%s: unsupported bit depth %d, want 16", path, d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return WAV{}, fmt.Errorf("failed to decode WAV file: %w", err)
	}

	channels := int(d.NumChans)
	return WAV{
		Samples:    firstChannel(buf, channels),
		SampleRate: int(d.SampleRate),
		Channels:   channels,
	}, nil
}

func firstChannel(buf *goaudio.IntBuffer, channels int) []int16 {
	if channels < 1 {
		channels = 1
	}
	samples := make([]int16, len(buf.Data)/channels)
	for i := range samples {
		samples[i] = int16(buf.Data[i*channels])
	}
	return samples
}

// WriteWAV encodes mono 16-bit samples as a WAV file
func WriteWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode WAV file: %w", err)
	}
	return enc.Close()
}
