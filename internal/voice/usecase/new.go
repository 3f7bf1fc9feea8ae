package usecase

import (
	"context"

	"voice-agent/internal/history"
	"voice-agent/internal/ratelimit"
	"voice-agent/internal/resilience"
	"voice-agent/internal/session"
	"voice-agent/pkg/elevenlabs"
	pkgLog "voice-agent/pkg/log"
	"voice-agent/pkg/llmprovider"
	"voice-agent/pkg/whisper"
)

// Upstream dependency names used for circuit-breaker and per-user
// upstream rate-limit accounting.
const (
	depTranscription = "transcription"
	depGeneration    = "language-generation"
	depSynthesis     = "speech-synthesis"
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, opts whisper.TranscribeOptions) (*whisper.Transcription, error)
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts elevenlabs.VoiceOptions) ([]byte, error)
}

// Generator produces text from a conversation. *llmprovider.Manager
// satisfies this.
type Generator interface {
	GenerateContent(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error)
}

// Config tunes the orchestrator.
type Config struct {
	SpoolDir      string // working dir for transient audio files, empty for os.TempDir
	Language      string // BCP-47 transcription hint
	VoiceOptions  elevenlabs.VoiceOptions
	ExecuteOpts   resilience.Options
	AssistantName string
}

type implUseCase struct {
	l           pkgLog.Logger
	limiter     *ratelimit.Limiter
	res         *resilience.Manager
	sessions    *session.Manager
	contexts    *session.Manager
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer
	recorder    history.Recorder
	cfg         Config
}

// New creates a new voice UseCase instance. sessions holds the live
// call window; contexts aggregates turns across calls under a longer
// TTL and only enriches generation.
func New(
	l pkgLog.Logger,
	limiter *ratelimit.Limiter,
	res *resilience.Manager,
	sessions *session.Manager,
	contexts *session.Manager,
	transcriber Transcriber,
	generator Generator,
	synthesizer Synthesizer,
	recorder history.Recorder,
	cfg Config,
) *implUseCase {
	if recorder == nil {
		recorder = history.NopRecorder{}
	}
	if contexts == nil {
		contexts = sessions
	}
	if cfg.AssistantName == "" {
		cfg.AssistantName = "the assistant"
	}
	return &implUseCase{
		l:           l,
		limiter:     limiter,
		res:         res,
		sessions:    sessions,
		contexts:    contexts,
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		recorder:    recorder,
		cfg:         cfg,
	}
}
