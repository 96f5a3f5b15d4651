// Package portaudio captures and plays mono linear16 audio through the
// default PortAudio stream.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-interview/core/audio"
)

const DefaultBufferSize = 512

type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in  []int16
	out []int16

	// pending holds audio shorter than one output buffer
	pending []byte
	writeMu sync.Mutex
}

func NewClient(bufferSize int) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{bufferSize: bufferSize, stream: stream, in: in, out: out}, nil
}

// Stream reads microphone buffers into onAudio until ctx is done.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := c.stream.Read(); err != nil {
			return fmt.Errorf("failed to read from portaudio stream: %w", err)
		}
		frame := bytes.Buffer{}
		if err := binary.Write(&frame, binary.LittleEndian, c.in); err != nil {
			return fmt.Errorf("failed to encode captured audio: %w", err)
		}
		onAudio(frame.Bytes())
	}
}

func (c *Client) Close() {
	c.stream.Stop()
	c.stream.Close()
	portaudio.Terminate()
}

// SendAudio plays every complete buffer in audio and keeps the remainder
// for the next call.
func (c *Client) SendAudio(audio []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.pending = append(c.pending, audio...)
	chunk := c.bufferSize * 2
	for len(c.pending) >= chunk {
		if err := c.write(c.pending[:chunk]); err != nil {
			return err
		}
		c.pending = c.pending[chunk:]
	}
	return nil
}

func (c *Client) ClearBuffer() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.pending = nil
}

// AwaitMark flushes the remainder, padded with silence. Writes are blocking
// so the audio has been handed to the device when it returns.
func (c *Client) AwaitMark(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if len(c.pending) == 0 || ctx.Err() != nil {
		c.pending = nil
		return ctx.Err()
	}

	chunk := make([]byte, c.bufferSize*2)
	copy(chunk, c.pending)
	c.pending = nil
	return c.write(chunk)
}

func (c *Client) write(chunk []byte) error {
	if err := binary.Read(bytes.NewReader(chunk), binary.LittleEndian, c.out); err != nil {
		return fmt.Errorf("failed to decode playback audio: %w", err)
	}
	if err := c.stream.Write(); err != nil {
		return fmt.Errorf("failed to write to portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: audio.DefaultSampleRate, Format: audio.FormatLinear16}
}
