package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	orchestration "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/core/agents/groq"
	"github.com/koscakluka/ema-interview/core/agents/httpapi"
	"github.com/koscakluka/ema-interview/core/audio/miniaudio"
	"github.com/koscakluka/ema-interview/core/audio/portaudio"
	"github.com/koscakluka/ema-interview/core/session"
	"github.com/koscakluka/ema-interview/core/speech"
	"github.com/koscakluka/ema-interview/core/speech/deepgram"
	"github.com/koscakluka/ema-interview/core/store"
	"github.com/koscakluka/ema-interview/core/store/sqlite"
	"github.com/koscakluka/ema-interview/internal/config"
	"github.com/koscakluka/ema-interview/internal/tui"
)

const healthCheckTimeout = 3 * time.Second

// runtime owns everything a running session needs.
type runtime struct {
	orchestrator *orchestration.Orchestrator
	notifier     *tui.Notifier
	closers      []func()
}

func (r *runtime) Close() {
	if r.orchestrator != nil {
		r.orchestrator.Close()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

type audioDevice interface {
	speech.AudioSource
	speech.AudioSink
	Close()
}

// buildRuntime wires the configured collaborators into an orchestrator.
// Speech problems degrade to a text-only session; everything else fails.
func buildRuntime(ctx context.Context, cfg *config.Config, dir string) (*runtime, error) {
	rt := &runtime{notifier: tui.NewNotifier()}

	seed, err := session.Parse(cfg.Session.Seed)
	if err != nil {
		return nil, fmt.Errorf("session seed: %w", err)
	}

	sessionStore, err := openStore(cfg.Store, dir)
	if err != nil {
		return nil, err
	}
	if closer, ok := sessionStore.(*sqlite.Store); ok {
		rt.closers = append(rt.closers, func() {
			if err := closer.Close(); err != nil {
				logger.Warn("failed to close session store", "error", err)
			}
		})
	}

	backend := httpapi.NewClient(cfg.Backend.URL, httpapi.WithRequestTimeout(cfg.RequestTimeout()))
	checkBackend(ctx, backend, cfg.Backend.URL)

	opts := []orchestration.OrchestratorOption{
		orchestration.WithCollaborator(backend),
		orchestration.WithSessionStore(sessionStore),
		orchestration.WithSessionSeed(seed),
		orchestration.WithTimings(cfg.SessionTimings()),
		orchestration.WithUpdateCallback(rt.notifier.Notify),
		orchestration.WithStageChangedCallback(func(from, to orchestration.Stage) {
			logger.Debug("stage changed", "from", from.String(), "to", to.String())
		}),
	}

	if cfg.Assessment.Provider == config.ProviderGroq {
		generator, err := newGroqGenerator(cfg.Assessment, dir)
		if err != nil {
			rt.Close()
			return nil, err
		}
		opts = append(opts, orchestration.WithAssessmentGenerator(generator))
	}

	if cfg.Speech.Enabled {
		capability, closeDevice := openSpeech(cfg.Speech)
		if closeDevice != nil {
			rt.closers = append(rt.closers, closeDevice)
		}
		opts = append(opts,
			orchestration.WithSpeech(capability),
			orchestration.WithAutoSpeak(cfg.Speech.AutoSpeak),
		)
	}

	rt.orchestrator = orchestration.NewOrchestrator(opts...)
	return rt, nil
}

func openStore(cfg config.StoreConfig, dir string) (store.SessionStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		path := cfg.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func checkBackend(ctx context.Context, backend *httpapi.Client, url string) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := backend.Health(ctx); err != nil {
		logger.Warn("interview backend is not reachable, conversations will show errors", "url", url, "error", err)
	}
}

func newGroqGenerator(cfg config.AssessmentConfig, dir string) (*groq.AssessmentGenerator, error) {
	jobAd, err := readOptional(cfg.JobAdFile, dir)
	if err != nil {
		return nil, err
	}
	qna, err := readOptional(cfg.QnAFile, dir)
	if err != nil {
		return nil, err
	}

	generator, err := groq.NewAssessmentGenerator(cfg.GroqAPIKey,
		groq.WithModel(cfg.GroqModel),
		groq.WithQuestionCount(cfg.QuestionCount),
		groq.WithJobContext(jobAd, qna),
	)
	if err != nil {
		return nil, fmt.Errorf("creating groq assessment generator: %w", err)
	}
	return generator, nil
}

func readOptional(path, dir string) (string, error) {
	if path == "" {
		return "", nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// openSpeech returns whatever speech capability could be set up and a
// function releasing the audio device.
func openSpeech(cfg config.SpeechConfig) (speech.Capability, func()) {
	device, err := openAudioDevice(cfg.AudioBackend)
	if err != nil {
		logger.Warn("audio device unavailable, continuing without speech", "backend", cfg.AudioBackend, "error", err)
		return speech.Capability{}, nil
	}

	var capability speech.Capability
	speaker, err := deepgram.NewSpeaker(device,
		deepgram.WithAPIKey(cfg.DeepgramAPIKey),
		deepgram.WithVoice(cfg.Voice),
	)
	if err != nil {
		logger.Warn("text to speech unavailable", "error", err)
	} else {
		capability.Speaker = speaker
	}

	listener, err := deepgram.NewListener(device,
		deepgram.WithAPIKey(cfg.DeepgramAPIKey),
		deepgram.WithModel(cfg.Model),
		deepgram.WithLanguage(cfg.Language),
	)
	if err != nil {
		logger.Warn("speech recognition unavailable", "error", err)
	} else {
		capability.Listener = listener
	}

	return capability, device.Close
}

func openAudioDevice(backend string) (audioDevice, error) {
	switch backend {
	case config.AudioPortaudio:
		client, err := portaudio.NewClient(portaudio.DefaultBufferSize)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
