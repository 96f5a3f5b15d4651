package deepgram

import (
	"errors"
	"os"
)

const (
	DefaultVoice      = "aura-2-thalia-en"
	DefaultModel      = "nova-2"
	DefaultLanguage   = "tr"
	apiKeyEnvVariable = "DEEPGRAM_API_KEY"
)

var ErrMissingAPIKey = errors.New("deepgram api key not found")

type options struct {
	apiKey   string
	voice    string
	model    string
	language string
	baseURL  string
}

type Option func(*options)

// WithAPIKey sets the key instead of reading DEEPGRAM_API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(o *options) { o.apiKey = apiKey }
}

func WithVoice(voice string) Option {
	return func(o *options) { o.voice = voice }
}

func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

func WithLanguage(language string) Option {
	return func(o *options) { o.language = language }
}

// withBaseURL points the sockets at a different server, used by tests.
func withBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

func newOptions(opts []Option) (options, error) {
	o := options{
		voice:    DefaultVoice,
		model:    DefaultModel,
		language: DefaultLanguage,
		baseURL:  "wss://api.deepgram.com",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv(apiKeyEnvVariable)
	}
	if o.apiKey == "" {
		return o, ErrMissingAPIKey
	}
	return o, nil
}
