package settings

import (
	"context"
	"fmt"
	"os"

	"github.com/audiary/audiary/internal/pkg/utils"
)

// Stored setting keys
const (
	KeyTranscribeAPI   = "transcribe_api"
	KeyTranscribeModel = "transcribe_model"
	KeySummaryAPI      = "summary_api"
	KeySummaryModel    = "summary_model"
)

// Provider api tags
const (
	APIMock   = "mock"
	APIOpenAI = "openai"
	APIGoogle = "google"
	APIClaude = "claude"
)

var defaults = map[string]string{
	KeyTranscribeAPI:   APIMock,
	KeyTranscribeModel: "mock-whisper-v1",
	KeySummaryAPI:      APIMock,
	KeySummaryModel:    "mock-gpt-4o-mini",
}

var envNames = map[string]string{
	KeyTranscribeAPI:   "TRANSCRIBE_API",
	KeyTranscribeModel: "TRANSCRIBE_MODEL",
	KeySummaryAPI:      "SUMMARY_API",
	KeySummaryModel:    "SUMMARY_MODEL",
}

// credential env var required per provider api, mock needs none
var credentialEnv = map[string]map[string]string{
	"transcribe": {APIOpenAI: "OPENAI_API_KEY", APIGoogle: "GOOGLE_API_KEY"},
	"summary":    {APIOpenAI: "OPENAI_API_KEY", APIClaude: "CLAUDE_API_KEY"},
}

// Snapshot is a resolved provider configuration, taken once per request
// and threaded into adapter construction so a mid-flight settings change
// can't switch providers under an already resolved call
type Snapshot struct {
	TranscribeAPI   string
	TranscribeModel string
	SummaryAPI      string
	SummaryModel    string
}

// Store provides persisted settings access
type Store interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, values map[string]string, validate func(map[string]string) error) error
}

// Resolver resolves setting values: stored overrides environment
// overrides hardcoded default
type Resolver struct {
	store Store
	env   func(string) string
}

// NewResolver creates resolver instance
func NewResolver(store Store) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("no store")
	}
	return &Resolver{store: store, env: os.Getenv}, nil
}

// WithEnv replaces environment access, for tests
func (r *Resolver) WithEnv(env func(string) string) *Resolver {
	r.env = env
	return r
}

// Snapshot resolves the full provider configuration
func (r *Resolver) Snapshot(ctx context.Context) (*Snapshot, error) {
	stored, err := r.store.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't load settings: %w", err)
	}
	return &Snapshot{
		TranscribeAPI:   r.resolve(stored, KeyTranscribeAPI),
		TranscribeModel: r.resolve(stored, KeyTranscribeModel),
		SummaryAPI:      r.resolve(stored, KeySummaryAPI),
		SummaryModel:    r.resolve(stored, KeySummaryModel),
	}, nil
}

func (r *Resolver) resolve(stored map[string]string, key string) string {
	if v, ok := stored[key]; ok && v != "" {
		return v
	}
	if v := r.env(envNames[key]); v != "" {
		return v
	}
	return defaults[key]
}

// Save persists the batch, all keys or none. Credential validation runs
// inside the store transaction, a failure rolls the whole batch back
func (r *Resolver) Save(ctx context.Context, values map[string]string) error {
	for k := range values {
		if _, ok := defaults[k]; !ok {
			return fmt.Errorf("unknown setting '%s'", k)
		}
	}
	return r.store.SaveSettings(ctx, values, r.Validate)
}

// Validate checks the selected providers against available credentials
func (r *Resolver) Validate(values map[string]string) error {
	if err := r.checkAPI("transcribe", values[KeyTranscribeAPI], APIGoogle); err != nil {
		return err
	}
	return r.checkAPI("summary", values[KeySummaryAPI], APIClaude)
}

func (r *Resolver) checkAPI(kind, api, cloudB string) error {
	if api == "" || api == APIMock {
		return nil
	}
	if api != APIOpenAI && api != cloudB {
		return utils.NewErrConfig(fmt.Sprintf("unsupported %s api '%s'", kind, api))
	}
	envName := credentialEnv[kind][api]
	if r.env(envName) == "" {
		return utils.NewErrConfig(fmt.Sprintf("%s %s requires %s", api, kind, envName))
	}
	return nil
}

// Issues inspects the currently resolved configuration and lists
// every missing credential, for the validate endpoint
func (r *Resolver) Issues(ctx context.Context) ([]string, *Snapshot, error) {
	sn, err := r.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	var res []string
	check := func(kind, api string) {
		envName, needed := credentialEnv[kind][api]
		if needed && r.env(envName) == "" {
			res = append(res, fmt.Sprintf("%s %s: %s is not set", api, kind, envName))
		}
	}
	check("transcribe", sn.TranscribeAPI)
	check("summary", sn.SummaryAPI)
	return res, sn, nil
}

// Credential returns the env value of the provider's key, may be empty
func (r *Resolver) Credential(envName string) string {
	return r.env(envName)
}
