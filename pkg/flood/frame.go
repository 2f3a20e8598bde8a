package flood

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	// ProtocolID is the stream protocol of the built-in flood router.
	ProtocolID = "/chakra/flood/1.0.0"

	// MaxFrameSize bounds a single frame on the wire.
	MaxFrameSize = 1 << 20
)

// FrameType distinguishes subscription announcements from chat messages.
type FrameType string

const (
	FrameSubscribe FrameType = "subscribe"
	FrameMessage   FrameType = "message"
)

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrUnknownFrame  = errors.New("unknown frame type")
	ErrMissingTopic  = errors.New("frame has no topic")
)

// Frame is the unit exchanged on a flood stream. Data is carried as raw bytes
// and is not required to be valid text.
type Frame struct {
	Type  FrameType `json:"type"`
	ID    string    `json:"id"`
	Topic string    `json:"topic"`
	Data  []byte    `json:"data,omitempty"`
}

func newSubscribeFrame(topic string) Frame {
	return Frame{Type: FrameSubscribe, ID: uuid.NewString(), Topic: topic}
}

func newMessageFrame(topic string, data []byte) Frame {
	return Frame{Type: FrameMessage, ID: uuid.NewString(), Topic: topic, Data: data}
}

func (f Frame) validate() error {
	if f.Topic == "" {
		return ErrMissingTopic
	}
	switch f.Type {
	case FrameSubscribe, FrameMessage:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrame, f.Type)
	}
}

// writeFrame encodes f as one JSON document.
func writeFrame(w io.Writer, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// readFrame decodes one frame, refusing anything larger than MaxFrameSize.
func readFrame(r io.Reader) (Frame, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFrameSize+2))
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read frame: %w", err)
	}
	if len(data) > MaxFrameSize+1 {
		return Frame{}, ErrFrameTooLarge
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	if err := f.validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}
