package audio

import (
	"sync"
)

// SampleBuffer is a thread-safe ring buffer of 16-bit PCM samples that hands
// out fixed-size frames
type SampleBuffer struct {
	buffer []int16
	size   int
	read   int
	write  int
	mu     sync.RWMutex
}

// NewSampleBuffer creates a buffer holding up to capacity samples
func NewSampleBuffer(capacity int) *SampleBuffer {
	return &SampleBuffer{
		buffer: make([]int16, capacity+1),
		size:   capacity + 1,
	}
}

// Write appends samples to the buffer
// Returns the number of samples written (may be less than len(samples) if buffer is full)
func (sb *SampleBuffer) Write(samples []int16) int {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	written := 0
	for _, s := range samples {
		if (sb.write+1)%sb.size == sb.read {
			break // Buffer full
		}

		sb.buffer[sb.write] = s
		sb.write = (sb.write + 1) % sb.size
		written++
	}

	return written
}

// ReadFrame removes and returns exactly n samples
// Returns false and leaves the buffer untouched while fewer than n samples are buffered
func (sb *SampleBuffer) ReadFrame(n int) ([]int16, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if n <= 0 || sb.availableLocked() < n {
		return nil, false
	}
	return sb.takeLocked(n), true
}

// Drain removes and returns every buffered sample, including a partial frame
func (sb *SampleBuffer) Drain() []int16 {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.takeLocked(sb.availableLocked())
}

func (sb *SampleBuffer) takeLocked(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = sb.buffer[sb.read]
		sb.read = (sb.read + 1) % sb.size
	}
	return out
}

// Available returns the number of samples available to read
func (sb *SampleBuffer) Available() int {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	return sb.availableLocked()
}

func (sb *SampleBuffer) availableLocked() int {
	if sb.write >= sb.read {
		return sb.write - sb.read
	}
	return sb.size - sb.read + sb.write
}

// Clear discards all buffered samples
func (sb *SampleBuffer) Clear() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.read = 0
	sb.write = 0
}

// IsEmpty returns true if the buffer is empty
func (sb *SampleBuffer) IsEmpty() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.read == sb.write
}

// Frames splits samples into consecutive frames of n samples
// The trailing partial frame is not returned, its length is reported as dropped
func Frames(samples []int16, n int) (frames [][]int16, dropped int) {
	if n <= 0 {
		return nil, len(samples)
	}
	count := len(samples) / n
	frames = make([][]int16, count)
	for i := range frames {
		frames[i] = samples[i*n : (i+1)*n : (i+1)*n]
	}
	return frames, len(samples) - count*n
}
