package transcriber

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/audiary/audiary/internal/pkg/provider"
	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/cenkalti/backoff/v4"
)

const googleModelName = "google-speech-to-text"

// Google transcribes with the cloud speech recognize REST API
type Google struct {
	httpclient *http.Client
	url        string
	key        string
	model      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
	converter  Converter
}

// NewGoogle creates speech API client
func NewGoogle(key, model string, converter Converter) (*Google, error) {
	if key == "" {
		return nil, fmt.Errorf("no key")
	}
	if converter == nil {
		return nil, fmt.Errorf("no converter")
	}
	if model == "" {
		model = "latest_long"
	}
	res := &Google{key: key, model: model, converter: converter}
	res.url = "https://speech.googleapis.com/v1/speech:recognize"
	res.httpclient = provider.NewHTTPClient()
	res.timeout = time.Minute * 2
	res.backoff = provider.NewSimpleBackoff
	return res, nil
}

type (
	googleRequest struct {
		Config googleConfig `json:"config"`
		Audio  googleAudio  `json:"audio"`
	}
	googleConfig struct {
		Encoding                   string `json:"encoding"`
		SampleRateHertz            int    `json:"sampleRateHertz"`
		LanguageCode               string `json:"languageCode"`
		Model                      string `json:"model"`
		UseEnhanced                bool   `json:"useEnhanced"`
		EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	}
	googleAudio struct {
		Content string `json:"content"`
	}
	googleResponse struct {
		Results []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"results"`
	}
)

// Transcribe sends canonical PCM content for recognition. The provider
// orders alternatives by confidence, the first one wins. Zero results
// is an empty transcription, not a failure
func (c *Google) Transcribe(ctx context.Context, audioPath string) (*api.TranscribeResult, error) {
	path := audioPath
	if utils.NeedsConversion(path) {
		wav, cleanup, err := c.converter.ToWav(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("can't convert audio: %w", err)
		}
		defer cleanup()
		path = wav
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read audio: %w", err)
	}

	reqData := googleRequest{
		Config: googleConfig{Encoding: "LINEAR16", SampleRateHertz: 16000,
			LanguageCode: "ja-JP", Model: c.model, UseEnhanced: true,
			EnableAutomaticPunctuation: true},
		Audio: googleAudio{Content: base64.StdEncoding.EncodeToString(content)},
	}
	res, err := provider.InvokeJSON[googleResponse](ctx, c.httpclient, c.url+"?key="+c.key,
		c.timeout, c.backoff(), reqData, nil)
	if err != nil {
		return nil, err
	}

	if len(res.Results) == 0 || len(res.Results[0].Alternatives) == 0 {
		return &api.TranscribeResult{Text: "", Confidence: 0.0,
			Model: googleModelName, Language: "ja"}, nil
	}
	best := res.Results[0].Alternatives[0]
	return &api.TranscribeResult{Text: best.Transcript, Confidence: best.Confidence,
		Model: googleModelName, Language: "ja"}, nil
}
