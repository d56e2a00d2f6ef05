package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zaf/g711"
)

// BytesToSamples decodes 16-bit little-endian PCM
func BytesToSamples(pcmData []byte) ([]int16, error) {
	if len(pcmData)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples), got %d bytes", len(pcmData))
	}

	samples := make([]int16, len(pcmData)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcmData[i*2:]))
	}
	return samples, nil
}

// SamplesToBytes encodes samples as 16-bit little-endian PCM
func SamplesToBytes(samples []int16) []byte {
	pcmData := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcmData[i*2:], uint16(s))
	}
	return pcmData
}

// DecodeMulaw converts G.711 PCMU (μ-law) to linear PCM samples
func DecodeMulaw(pcmuData []byte) []int16 {
	samples := make([]int16, len(pcmuData))
	for i, u := range pcmuData {
		samples[i] = g711.DecodeUlawFrame(u)
	}
	return samples
}

// Resampler converts a stream of chunks between sample rates by linear interpolation
// The last input sample of each chunk is carried into the next so interpolation
// runs across chunk boundaries
// Output lags input by one sample, so with integral rate ratios each chunk of
// n samples yields exactly n*outputRate/inputRate samples
type Resampler struct {
	inputRate  int
	outputRate int
	step       float64 // input samples per output sample

	tail   int16
	next   float64 // position of the next output, with 0 at tail
	primed bool
}

// NewResampler creates a resampler from inputRate to outputRate
func NewResampler(inputRate, outputRate int) *Resampler {
	r := &Resampler{inputRate: inputRate, outputRate: outputRate}
	if inputRate > 0 && outputRate > 0 {
		r.step = float64(inputRate) / float64(outputRate)
	}
	return r
}

// Process resamples the next chunk of the stream
// Chunks are returned as is when the rates match or either rate is not positive
func (r *Resampler) Process(chunk []int16) []int16 {
	if r.inputRate == r.outputRate || r.step == 0 || len(chunk) == 0 {
		return chunk
	}
	if !r.primed {
		r.tail = chunk[0]
		r.next = 0
		r.primed = true
	}

	// buf[0] is the carried tail, buf[1:] the new chunk
	buf := make([]int16, 0, len(chunk)+1)
	buf = append(buf, r.tail)
	buf = append(buf, chunk...)

	last := float64(len(buf) - 1)
	output := make([]int16, 0, int(last/r.step)+1)
	pos := r.next
	for ; pos < last; pos += r.step {
		idx0 := int(pos)
		fraction := pos - float64(idx0)
		output = append(output, int16(float64(buf[idx0])*(1.0-fraction)+float64(buf[idx0+1])*fraction))
	}

	r.tail = chunk[len(chunk)-1]
	r.next = pos - float64(len(chunk))
	return output
}

// Reset forgets the carried sample so the next chunk starts a new stream
func (r *Resampler) Reset() {
	r.tail = 0
	r.next = 0
	r.primed = false
}

// CalculateRMS calculates the root mean square (RMS) of audio samples
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
