package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-interview/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keepAliveInterval = 5 * time.Second

// Listener transcribes an audio source with the Deepgram streaming API.
type Listener struct {
	options options
	source  speech.AudioSource
	dialer  *websocket.Dialer
}

func NewListener(source speech.AudioSource, opts ...Option) (*Listener, error) {
	options, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Listener{options: options, source: source, dialer: websocket.DefaultDialer}, nil
}

func (l *Listener) listenURL(encoding *encodingInfo) string {
	listenURL, _ := url.Parse(l.options.baseURL + "/v1/listen")
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", l.options.model)
	queryParams.Set("language", l.options.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()
	return listenURL.String()
}

// Listen streams the source until ctx is done or the consumer stops. Every
// utterance yields interim transcripts followed by one final transcript.
func (l *Listener) Listen(ctx context.Context) iter.Seq2[speech.Transcript, error] {
	return func(yield func(speech.Transcript, error) bool) {
		ctx, span := tracer.Start(ctx, "listen")
		defer span.End()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(speech.Transcript{}, err)
		}

		encoding, err := convertEncoding(l.source.EncodingInfo())
		if err != nil {
			fail(fmt.Errorf("invalid encoding: %w", err))
			return
		}
		span.SetAttributes(
			attribute.String("listen.model", l.options.model),
			attribute.String("listen.language", l.options.language),
		)

		conn, _, err := l.dialer.DialContext(ctx, l.listenURL(encoding),
			http.Header{"Authorization": {"Token " + l.options.apiKey}})
		if err != nil {
			fail(fmt.Errorf("failed to open socket connection to deepgram: %w", err))
			return
		}

		var writeMu sync.Mutex
		write := func(messageType int, data []byte) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteMessage(messageType, data); err != nil && ctx.Err() == nil {
				logger.Debug("failed to write to deepgram socket", "error", err)
			}
		}

		streamDone := make(chan struct{})
		go func() {
			defer close(streamDone)
			if err := l.source.Stream(ctx, func(frame []byte) {
				write(websocket.BinaryMessage, frame)
			}); err != nil {
				logger.Error("audio capture stopped", "error", err)
			}
		}()
		go func() {
			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					write(websocket.TextMessage, controlMessage(string(api.TypeCloseStreamResponse)))
					conn.Close()
					return
				case <-ticker.C:
					write(websocket.TextMessage, controlMessage("KeepAlive"))
				}
			}
		}()
		defer func() {
			cancel()
			<-streamDone
		}()

		var accumulator transcriptAccumulator
		for {
			messageType, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return
				}
				fail(fmt.Errorf("failed to read deepgram message: %w", err))
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			if transcript, ok := accumulator.process(msg); ok {
				if !yield(transcript, nil) {
					return
				}
			}
		}
	}
}

func controlMessage(messageType string) []byte {
	msg, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{Type: messageType})
	return msg
}

// transcriptAccumulator joins finalised segments of one utterance.
type transcriptAccumulator struct {
	segments       string
	unendedSegment bool
}

func (a *transcriptAccumulator) process(msg []byte) (speech.Transcript, bool) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Debug("failed to unmarshal deepgram message", "error", err)
		return speech.Transcript{}, false
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Debug("failed to unmarshal deepgram results", "error", err)
			return speech.Transcript{}, false
		}
		segment := ""
		if len(msgResp.Channel.Alternatives) > 0 {
			segment = strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		}

		if !msgResp.IsFinal {
			if segment == "" {
				return speech.Transcript{}, false
			}
			return speech.Transcript{Text: joinSegments(a.segments, segment)}, true
		}

		a.segments = joinSegments(a.segments, segment)
		if msgResp.SpeechFinal {
			return a.endUtterance()
		}
		if segment == "" {
			return speech.Transcript{}, false
		}
		return speech.Transcript{Text: a.segments}, true

	case api.TypeUtteranceEndResponse:
		if a.unendedSegment || a.segments != "" {
			return a.endUtterance()
		}

	case api.TypeSpeechStartedResponse:
		a.unendedSegment = true
	}

	return speech.Transcript{}, false
}

func (a *transcriptAccumulator) endUtterance() (speech.Transcript, bool) {
	text := a.segments
	a.segments = ""
	a.unendedSegment = false
	if text == "" {
		return speech.Transcript{}, false
	}
	return speech.Transcript{Text: text, IsFinal: true}, true
}

func joinSegments(accumulated, segment string) string {
	if accumulated == "" {
		return segment
	} else if segment == "" {
		return accumulated
	}
	return accumulated + " " + segment
}
