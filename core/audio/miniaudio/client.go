// Package miniaudio captures and plays mono audio through the default
// devices using miniaudio.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-interview/core/audio"
)

type Client struct {
	// audioContext is only kept to release it on Close
	audioContext *malgo.AllocatedContext
	sampleRate   int

	playbackClient
	captureClient
}

type ClientOption func(*Client)

// WithSampleRate overrides audio.DefaultSampleRate for both devices.
func WithSampleRate(sampleRate int) ClientOption {
	return func(c *Client) {
		c.sampleRate = sampleRate
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{sampleRate: audio.DefaultSampleRate}
	for _, opt := range opts {
		opt(client)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	client.audioContext = audioCtx

	if err := client.playbackClient.Init(audioCtx, client.sampleRate); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}
	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}
	if err := client.captureClient.Init(audioCtx, client.sampleRate); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return client, nil
}

// Stream captures microphone audio into onAudio until ctx is done.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.captureClient.Start(onAudio); err != nil {
		return err
	}
	<-ctx.Done()
	return c.captureClient.Stop()
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.SendAudio(audio)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

// AwaitMark blocks until everything queued so far was played.
func (c *Client) AwaitMark(ctx context.Context) error {
	return c.playbackClient.AwaitMark(ctx)
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: c.sampleRate, Format: audio.FormatLinear16}
}
