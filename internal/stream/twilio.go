package stream

// TwilioMessage represents a message from Twilio Media Streams
type TwilioMessage struct {
	Event          string       `json:"event"`
	SequenceNumber string       `json:"sequenceNumber,omitempty"`
	StreamSid      string       `json:"streamSid,omitempty"`
	Media          *TwilioMedia `json:"media,omitempty"`
	Start          *TwilioStart `json:"start,omitempty"`
	Stop           *TwilioStop  `json:"stop,omitempty"`
}

// TwilioMedia represents the media payload in a media event
type TwilioMedia struct {
	Track     string `json:"track"`
	Chunk     string `json:"chunk"`
	Timestamp string `json:"timestamp"`
	Payload   string `json:"payload"` // Base64 encoded μ-law audio
}

// TwilioStart represents the start event payload
type TwilioStart struct {
	AccountSid  string            `json:"accountSid"`
	CallSid     string            `json:"callSid"`
	StreamSid   string            `json:"streamSid"`
	Tracks      []string          `json:"tracks"`
	MediaFormat TwilioMediaFormat `json:"mediaFormat"`
}

// TwilioMediaFormat describes the encoding of media payloads
type TwilioMediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// TwilioStop represents the stop event payload
type TwilioStop struct {
	AccountSid string `json:"accountSid"`
	CallSid    string `json:"callSid"`
}

// Event is written to the client for every processed frame and for
// session-level notices
type Event struct {
	Event         string  `json:"event"` // "vad", "error" or "stop"
	StreamID      string  `json:"stream_id"`
	StreamSid     string  `json:"stream_sid,omitempty"`
	Frame         int64   `json:"frame"`
	Time          float64 `json:"time"` // Start of the frame in seconds since the stream began
	Probability   float32 `json:"probability"`
	Level         float64 `json:"level"` // RMS of the frame samples
	Speaking      bool    `json:"speaking"`
	SpeechStarted bool    `json:"speech_started"`
	SpeechEnded   bool    `json:"speech_ended"`
	ErrorKind     string  `json:"error_kind,omitempty"`
	Message       string  `json:"message,omitempty"`
}
