package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-interview/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Speaker synthesises text with the Deepgram streaming speak API and plays
// it on an audio sink, one utterance at a time.
type Speaker struct {
	options options
	sink    speech.AudioSink
	dialer  *websocket.Dialer

	speaking atomic.Bool
}

func NewSpeaker(sink speech.AudioSink, opts ...Option) (*Speaker, error) {
	options, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Speaker{options: options, sink: sink, dialer: websocket.DefaultDialer}, nil
}

func (s *Speaker) speakURL(encoding *encodingInfo) string {
	speakURL, _ := url.Parse(s.options.baseURL + "/v1/speak")
	urlValues := url.Values{}
	urlValues.Set("encoding", encoding.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	urlValues.Set("model", s.options.voice)
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()
	return speakURL.String()
}

// Speak blocks until the utterance was played or ctx is done. Cancelling
// ctx drops the audio that was not played yet.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = speech.CleanForSpeech(text)
	if text == "" {
		return nil
	}
	if !s.speaking.CompareAndSwap(false, true) {
		return speech.ErrSpeakerBusy
	}
	defer s.speaking.Store(false)

	ctx, span := tracer.Start(ctx, "speak")
	defer span.End()
	span.SetAttributes(
		attribute.String("speak.voice", s.options.voice),
		attribute.Int("speak.characters", len(text)),
	)

	if err := s.speak(ctx, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Speaker) speak(ctx context.Context, text string) error {
	encoding, err := convertEncoding(s.sink.EncodingInfo())
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, _, err := s.dialer.DialContext(ctx, s.speakURL(encoding),
		http.Header{"Authorization": {"Token " + s.options.apiKey}})
	if err != nil {
		return fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		s.sink.ClearBuffer()
		conn.Close()
	})
	defer stop()

	if err := conn.WriteJSON(sendTextMsg(text)); err != nil {
		return fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		return fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read deepgram message: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := s.sink.SendAudio(msg); err != nil {
				return fmt.Errorf("failed to play synthesised audio: %w", err)
			}
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}
			if parsedMsg.Type == "Flushed" {
				_ = conn.WriteJSON(closeMsg)
				return s.sink.AwaitMark(ctx)
			}
		}
	}
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func sendTextMsg(text string) speakMessage {
	return speakMessage{Type: "Speak", Text: text}
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)
