// Package audio describes the raw audio exchanged between devices and the
// speech services.
package audio

import (
	"errors"
	"fmt"
)

const DefaultSampleRate = 16000

var ErrUnknownFormat = errors.New("unknown audio format")

type Format string

const (
	FormatMulaw    Format = "mulaw"
	FormatALaw     Format = "alaw"
	FormatLinear16 Format = "linear16"
)

// ParseFormat accepts the names used in configuration files.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatMulaw, FormatALaw, FormatLinear16:
		return Format(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

func (f Format) Name() string {
	return string(f)
}

// ByteSize is the size of one mono sample, or -1 for unknown formats.
func (f Format) ByteSize() int {
	switch f {
	case FormatMulaw, FormatALaw:
		return 1
	case FormatLinear16:
		return 2
	}
	return -1
}

type EncodingInfo struct {
	SampleRate int
	Format     Format
}

func DefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: FormatLinear16}
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case FormatALaw:
		return 0x55
	case FormatMulaw:
		return 0xFF
	}
	return 0
}

// BytesFor returns the buffer size holding ms milliseconds of mono audio.
func (e EncodingInfo) BytesFor(ms int) int {
	return e.SampleRate * e.Format.ByteSize() * ms / 1000
}
