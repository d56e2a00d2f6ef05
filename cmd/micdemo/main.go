// Command micdemo prints the voice probability of live microphone audio until
// interrupted.
//
// Set COBRA_AUDIO_DEVICE_INDEX to pick a capture device (-1 is the system
// default); the available devices are listed at startup. When COBRA_WAV_PATH
// is set the captured audio is written there on exit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"

	cobra "github.com/lexiqai/cobra-go"
	"github.com/lexiqai/cobra-go/internal/audio"
	"github.com/lexiqai/cobra-go/internal/config"
	"github.com/lexiqai/cobra-go/internal/observability"
)

const (
	barWidth = 40

	// queuedFrames bounds how far capture may run ahead of processing
	queuedFrames = 64
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	c, err := cobra.New(cfg.AccessKey,
		cobra.WithLibraryPath(cfg.LibraryPath),
		cobra.WithLibraryDir(cfg.LibraryDir),
		cobra.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Cobra")
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Mic demo failed")
		c.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cobra.Cobra, cfg *config.Config, logger zerolog.Logger) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(c.SampleRate())
	deviceConfig.Alsa.NoMMap = 1

	devices, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return fmt.Errorf("failed to list capture devices: %w", err)
	}
	for i, d := range devices {
		fmt.Printf("index: %d, device name: %s\n", i, d.Name())
	}
	if idx := cfg.AudioDeviceIndex; idx >= 0 {
		if idx >= len(devices) {
			return fmt.Errorf("audio device index %d out of range, %d devices available", idx, len(devices))
		}
		deviceConfig.Capture.DeviceID = devices[idx].ID.Pointer()
	}

	frameLength := c.FrameLength()
	buffer := audio.NewSampleBuffer(frameLength * queuedFrames)
	ready := make(chan struct{}, 1)

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			samples, err := audio.BytesToSamples(input)
			if err != nil {
				return
			}
			if n := buffer.Write(samples); n < len(samples) {
				logger.Warn().Int("dropped", len(samples)-n).Msg("Processing fell behind capture")
			}
			select {
			case ready <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	fmt.Printf("Cobra version: %s\n", c.Version())
	fmt.Printf("Listening [Threshold %.2f]... press Ctrl+C to stop\n", cfg.VoiceThreshold)

	var recorded []int16
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping...")
			if err := device.Stop(); err != nil {
				logger.Warn().Err(err).Msg("Failed to stop capture device")
			}
			return save(cfg.WAVPath, recorded, c.SampleRate())
		case <-ready:
		}

		for {
			frame, ok := buffer.ReadFrame(frameLength)
			if !ok {
				break
			}
			p, err := c.Process(frame)
			if err != nil {
				return err
			}
			printBar(p, cfg.VoiceThreshold)

			if cfg.WAVPath != "" {
				recorded = append(recorded, frame...)
			}
		}
	}
}

// printBar redraws a single status line scaled to p.
func printBar(p, threshold float32) {
	n := int(p * barWidth)
	marker := " "
	if p >= threshold {
		marker = "*"
	}
	fmt.Printf("\r[%-*s] %.2f %s", barWidth, strings.Repeat("=", n), p, marker)
}

func save(path string, samples []int16, sampleRate int) error {
	if path == "" || len(samples) == 0 {
		return nil
	}
	if err := audio.WriteWAV(path, samples, sampleRate); err != nil {
		return err
	}
	fmt.Printf("Recorded audio written to %s\n", path)
	return nil
}
