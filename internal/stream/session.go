// Package stream serves voice activity detection over websockets
// Clients send raw 16-bit PCM at the engine rate as binary messages, or Twilio
// Media Stream JSON carrying μ-law audio, and receive one JSON event per frame
package stream

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cobra "github.com/lexiqai/cobra-go"
	"github.com/lexiqai/cobra-go/internal/audio"
	"github.com/lexiqai/cobra-go/internal/observability"
	"github.com/lexiqai/cobra-go/internal/resilience"
)

const (
	writeTimeout = 5 * time.Second

	// bufferedFrames bounds how much audio a session holds before framing
	bufferedFrames = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Detector is the engine surface a session needs (*cobra.Cobra satisfies it)
type Detector interface {
	Process(pcm []int16) (float32, error)
	SampleRate() int
	FrameLength() int
	Close() error
}

// Config holds per-session settings
type Config struct {
	Threshold           float32
	SilenceFrames       int
	MulawSampleRate     int
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
}

// Session holds the state of a single stream
type Session struct {
	conn     *websocket.Conn
	detector Detector
	cfg      Config

	id        string
	streamSid string

	buffer    *audio.SampleBuffer
	resampler *audio.Resampler
	vad       *audio.VADDetector
	breaker   *resilience.CircuitBreaker

	frames      int64
	breakerOpen bool

	metrics *observability.StreamMetrics
	logger  zerolog.Logger
	span    trace.Span
}

// Handler upgrades requests to websocket sessions
// newDetector is called once per connection and the session closes what it returns
func Handler(newDetector func() (Detector, error), cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detector, err := newDetector()
		if err != nil {
			observability.RecordError(errorKind(err), "stream")
			http.Error(w, "engine unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied to the client
			logger := observability.GetLogger()
			logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
			_ = detector.Close()
			return
		}
		defer conn.Close()

		s := newSession(r.Context(), conn, detector, cfg)
		s.run()
	}
}

func newSession(ctx context.Context, conn *websocket.Conn, detector Detector, cfg Config) *Session {
	id := observability.NewCorrelationID()
	logger := observability.WithCorrelationID(id).With().
		Str("remote", conn.RemoteAddr().String()).
		Logger()

	_, span := observability.StartSpan(ctx, "vad.stream", trace.WithAttributes(
		attribute.String("stream.id", id),
		attribute.Int("engine.sample_rate", detector.SampleRate()),
		attribute.Int("engine.frame_length", detector.FrameLength()),
	))

	breaker := resilience.NewCircuitBreaker("engine", cfg.BreakerMaxFailures, cfg.BreakerResetTimeout).
		WithFailurePredicate(func(err error) bool { return errors.Is(err, cobra.ErrLibrary) })

	metrics := observability.NewStreamMetrics(id)
	metrics.RecordStreamStart()

	return &Session{
		conn:      conn,
		detector:  detector,
		cfg:       cfg,
		id:        id,
		buffer:    audio.NewSampleBuffer(detector.FrameLength() * bufferedFrames),
		resampler: audio.NewResampler(cfg.MulawSampleRate, detector.SampleRate()),
		vad: audio.NewVADDetector(&audio.VADConfig{
			Threshold:     cfg.Threshold,
			SilenceFrames: cfg.SilenceFrames,
		}),
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
		span:    span,
	}
}

// run reads messages until the client disconnects, sends a Twilio stop
// event, or the engine handle is closed underneath the session
func (s *Session) run() {
	defer s.finish()

	s.logger.Info().Msg("VAD stream opened")

	for {
		msgType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var done bool
		switch msgType {
		case websocket.BinaryMessage:
			s.metrics.RecordAudioBytes("pcm", len(message))
			samples, err := audio.BytesToSamples(message)
			if err != nil {
				s.sendError("argument", err.Error())
				continue
			}
			done = s.feed(samples)
		case websocket.TextMessage:
			done = s.handleTwilio(message)
		}
		if done {
			return
		}
	}
}

func (s *Session) handleTwilio(message []byte) bool {
	var msg TwilioMessage
	if err := sonic.Unmarshal(message, &msg); err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse Twilio message")
		s.sendError("argument", "invalid JSON message")
		return false
	}

	switch msg.Event {
	case "connected":
		s.logger.Debug().Msg("Twilio stream connected")

	case "start":
		s.streamSid = msg.StreamSid
		if msg.Start != nil && msg.Start.StreamSid != "" {
			s.streamSid = msg.Start.StreamSid
		}
		s.span.SetAttributes(attribute.String("twilio.stream_sid", s.streamSid))
		s.logger = s.logger.With().Str("stream_sid", s.streamSid).Logger()

		// Audio from before the start event does not belong to this call
		if !s.buffer.IsEmpty() {
			s.logger.Debug().Int("samples", s.buffer.Available()).Msg("Discarding audio buffered before start")
			s.buffer.Clear()
		}
		s.resampler.Reset()
		s.vad.Reset()
		s.logger.Info().Msg("Twilio stream started")

	case "media":
		if msg.Media == nil {
			return false
		}
		payload := msg.Media.Payload
		if payload == "" {
			payload = msg.Media.Chunk
		}
		mulaw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to decode base64 audio")
			return false
		}
		s.metrics.RecordAudioBytes("mulaw", len(mulaw))
		samples := s.resampler.Process(audio.DecodeMulaw(mulaw))
		return s.feed(samples)

	case "stop":
		s.logger.Info().Msg("Twilio stream stopped")
		s.send(Event{Event: "stop", Frame: s.frames, Speaking: s.vad.IsSpeaking()})
		return true

	default:
		s.logger.Debug().Str("event", msg.Event).Msg("Ignoring Twilio event")
	}
	return false
}

// feed buffers samples and processes every complete frame
// Returns whether the session must end
func (s *Session) feed(samples []int16) bool {
	frameLength := s.detector.FrameLength()
	for len(samples) > 0 {
		n := s.buffer.Write(samples)
		samples = samples[n:]

		for {
			frame, ok := s.buffer.ReadFrame(frameLength)
			if !ok {
				break
			}
			if stop := s.processFrame(frame); stop {
				return true
			}
		}
	}
	return false
}

func (s *Session) processFrame(frame []int16) bool {
	var p float32
	start := time.Now()
	err := s.breaker.Call(func() error {
		var err error
		p, err = s.detector.Process(frame)
		return err
	})
	latency := time.Since(start)

	index := s.frames
	s.frames++

	if err != nil {
		return s.handleProcessError(err)
	}
	if s.breakerOpen {
		s.breakerOpen = false
		s.logger.Info().Msg("Engine recovered")
	}

	speaking, started, ended := s.vad.ProcessProbability(p)
	s.metrics.RecordFrame(p, s.vad.IsVoiced(p), latency)
	if started {
		s.metrics.RecordSpeechSegment()
	}

	s.send(Event{
		Event:         "vad",
		Frame:         index,
		Time:          float64(index) * float64(len(frame)) / float64(s.detector.SampleRate()),
		Probability:   p,
		Level:         audio.CalculateRMS(frame),
		Speaking:      speaking,
		SpeechStarted: started,
		SpeechEnded:   ended,
	})
	return false
}

func (s *Session) handleProcessError(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		s.metrics.RecordError("circuit_open", "engine")
		if !s.breakerOpen {
			s.breakerOpen = true
			s.logger.Warn().Msg("Engine circuit open, dropping frames")
			s.sendError("circuit_open", err.Error())
		}
		return false
	}

	kind := errorKind(err)
	s.metrics.RecordError(kind, "engine")
	s.span.RecordError(err)
	s.logger.Error().Err(err).Str("kind", kind).Msg("Frame processing failed")
	s.sendError(kind, err.Error())

	return errors.Is(err, cobra.ErrClosed)
}

func (s *Session) sendError(kind, message string) {
	s.send(Event{Event: "error", Frame: s.frames, ErrorKind: kind, Message: message})
}

func (s *Session) send(ev Event) {
	ev.StreamID = s.id
	ev.StreamSid = s.streamSid

	body, err := sonic.Marshal(ev)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode event")
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, body); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write event")
	}
}

func (s *Session) finish() {
	if rest := s.buffer.Drain(); len(rest) > 0 {
		s.logger.Debug().Int("samples", len(rest)).Msg("Discarding partial frame")
	}
	if err := s.detector.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to release engine")
	}

	s.span.SetAttributes(attribute.Int64("stream.frames", s.frames))
	if state, requests, failures, _ := s.breaker.GetStats(); failures > 0 {
		s.span.SetStatus(codes.Error, fmt.Sprintf("%d of %d engine calls failed", failures, requests))
		s.logger.Warn().Str("breaker", state.String()).Int64("failures", failures).Msg("Engine errors during stream")
	}
	s.breaker.Close()
	s.span.End()
	s.metrics.RecordStreamEnd()

	s.logger.Info().Int64("frames", s.frames).Msg("VAD stream closed")
}

// errorKind labels err for metrics and client events
func errorKind(err error) string {
	var cerr *cobra.Error
	if errors.As(err, &cerr) {
		return cerr.Kind.String()
	}
	return "internal"
}
