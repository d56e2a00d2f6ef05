// Command filedemo reports the moments of voice activity in a WAV file.
//
// The file must be 16-bit PCM at the engine sample rate. Configuration comes
// from the environment (or a .env file): COBRA_ACCESS_KEY, COBRA_WAV_PATH and
// COBRA_VOICE_THRESHOLD.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	cobra "github.com/lexiqai/cobra-go"
	"github.com/lexiqai/cobra-go/internal/audio"
	"github.com/lexiqai/cobra-go/internal/config"
	"github.com/lexiqai/cobra-go/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	if cfg.WAVPath == "" {
		logger.Fatal().Msg("COBRA_WAV_PATH is required")
	}

	c, err := cobra.New(cfg.AccessKey,
		cobra.WithLibraryPath(cfg.LibraryPath),
		cobra.WithLibraryDir(cfg.LibraryDir),
		cobra.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Cobra")
	}
	defer c.Close()

	if err := run(c, cfg.WAVPath, cfg.VoiceThreshold, logger); err != nil {
		logger.Error().Err(err).Str("path", cfg.WAVPath).Msg("File demo failed")
		c.Close()
		os.Exit(1)
	}
}

func run(c *cobra.Cobra, path string, threshold float32, logger zerolog.Logger) error {
	w, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}
	if w.SampleRate != c.SampleRate() {
		return fmt.Errorf("audio file should have a sample rate of %d, got %d", c.SampleRate(), w.SampleRate)
	}
	if w.Channels != 1 {
		logger.Warn().Int("channels", w.Channels).Msg("Using the first channel of a multichannel file")
	}

	fmt.Printf("Cobra version: %s\n", c.Version())

	frameLength := c.FrameLength()
	frames, dropped := audio.Frames(w.Samples, frameLength)
	for i, frame := range frames {
		p, err := c.Process(frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if p >= threshold {
			at := float64((i+1)*frameLength) / float64(c.SampleRate())
			fmt.Printf("Detected voice activity at %.1f sec\n", at)
		}
	}

	if dropped > 0 {
		logger.Debug().Int("samples", dropped).Msg("Ignored trailing partial frame")
	}
	return nil
}
