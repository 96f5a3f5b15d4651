package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type playbackClient struct {
	device *malgo.Device
	mu     sync.Mutex

	queued []byte
	marks  []playbackMark
	// queueMu guards queued and marks; the device callback takes it too.
	queueMu sync.Mutex
}

type playbackMark struct {
	position int
	done     chan struct{}
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, sampleRate int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	const channels = 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(sampleRate)
	config.Playback.Format = format
	config.Playback.Channels = channels
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(sampleRate / 10) // ~100ms of audio
	config.Periods = 4

	device, err := malgo.InitDevice(audioContext.Context, config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	c.device = device
	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	}
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (c *playbackClient) SendAudio(audio []byte) error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()
	if device == nil {
		return fmt.Errorf("playback device not initialized")
	} else if !device.IsStarted() {
		return fmt.Errorf("playback device not started")
	}

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.queued = append(c.queued, audio...)
	return nil
}

// ClearBuffer drops queued audio and releases every pending mark.
func (c *playbackClient) ClearBuffer() {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.queued = nil
	for _, mark := range c.marks {
		close(mark.done)
	}
	c.marks = nil
}

func (c *playbackClient) AwaitMark(ctx context.Context) error {
	mark := playbackMark{done: make(chan struct{})}

	c.queueMu.Lock()
	mark.position = len(c.queued)
	if mark.position == 0 {
		c.queueMu.Unlock()
		return nil
	}
	c.marks = append(c.marks, mark)
	c.queueMu.Unlock()

	select {
	case <-mark.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *playbackClient) Uninit() error {
	c.ClearBuffer()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.queueMu.Lock()
		defer c.queueMu.Unlock()

		played := copy(pOutput[:min(need, len(pOutput))], c.queued)
		c.queued = c.queued[played:]

		remaining := c.marks[:0]
		for _, mark := range c.marks {
			mark.position -= played
			if mark.position <= 0 {
				close(mark.done)
				continue
			}
			remaining = append(remaining, mark)
		}
		c.marks = remaining
	}
}
