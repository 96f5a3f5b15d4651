// Package speech defines the optional speech capability of a conversation.
package speech

import (
	"context"
	"errors"
	"iter"

	"github.com/koscakluka/ema-interview/core/audio"
)

// Transcript is a snapshot of recognised speech. Interim snapshots may be
// revised; a final one closes the utterance.
type Transcript struct {
	Text    string
	IsFinal bool
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Listener interface {
	// Listen yields transcripts until ctx is done or iteration stops.
	Listen(ctx context.Context) iter.Seq2[Transcript, error]
}

// Capability bundles the speech features available to the candidate. Either
// side may be nil.
type Capability struct {
	Speaker  Speaker
	Listener Listener
}

func (c Capability) CanSpeak() bool  { return c.Speaker != nil }
func (c Capability) CanListen() bool { return c.Listener != nil }

// AudioSource is a microphone-like device.
type AudioSource interface {
	EncodingInfo() audio.EncodingInfo
	// Stream blocks, delivering captured audio until ctx is done.
	Stream(ctx context.Context, onAudio func(audio []byte)) error
}

// AudioSink is a speaker-like device.
type AudioSink interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	AwaitMark(ctx context.Context) error
}

// ErrSpeakerBusy is returned while another utterance is being spoken.
var ErrSpeakerBusy = errors.New("speaker is busy")
