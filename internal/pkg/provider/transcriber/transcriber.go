package transcriber

import (
	"context"
	"fmt"
	"os"

	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/audiary/audiary/internal/pkg/utils"
)

// Converter transcodes audio into the canonical wav format for cloud ASR
type Converter interface {
	ToWav(ctx context.Context, inputPath string) (string, func(), error)
}

// Provider builds a transcriber for the resolved configuration.
// A fresh adapter per snapshot keeps provider identity explicit
// instead of mutable instance state
type Provider struct {
	converter Converter
	env       func(string) string
}

// NewProvider creates transcriber factory
func NewProvider(converter Converter) (*Provider, error) {
	if converter == nil {
		return nil, fmt.Errorf("no converter")
	}
	return &Provider{converter: converter, env: os.Getenv}, nil
}

// WithEnv replaces environment access, for tests
func (p *Provider) WithEnv(env func(string) string) *Provider {
	p.env = env
	return p
}

// Get returns the transcriber selected by the snapshot
func (p *Provider) Get(sn *settings.Snapshot) (api.Transcriber, error) {
	switch sn.TranscribeAPI {
	case settings.APIMock:
		return NewMock(), nil
	case settings.APIOpenAI:
		key := p.env("OPENAI_API_KEY")
		if key == "" {
			return nil, utils.NewErrConfig("openai transcribe requires OPENAI_API_KEY")
		}
		return NewOpenAI(key, sn.TranscribeModel, p.converter)
	case settings.APIGoogle:
		key := p.env("GOOGLE_API_KEY")
		if key == "" {
			return nil, utils.NewErrConfig("google transcribe requires GOOGLE_API_KEY")
		}
		return NewGoogle(key, sn.TranscribeModel, p.converter)
	}
	return nil, utils.NewErrConfig(fmt.Sprintf("unsupported transcription api '%s'", sn.TranscribeAPI))
}
