package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/provider"
	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/cenkalti/backoff/v4"
)

// OpenAI transcribes with the whisper speech-to-text REST API
type OpenAI struct {
	httpclient *http.Client
	url        string
	key        string
	model      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
	converter  Converter
}

// NewOpenAI creates whisper API client
func NewOpenAI(key, model string, converter Converter) (*OpenAI, error) {
	if key == "" {
		return nil, fmt.Errorf("no key")
	}
	if model == "" {
		return nil, fmt.Errorf("no model")
	}
	if converter == nil {
		return nil, fmt.Errorf("no converter")
	}
	res := &OpenAI{key: key, model: model, converter: converter}
	res.url = "https://api.openai.com/v1/audio/transcriptions"
	res.httpclient = provider.NewHTTPClient()
	res.timeout = time.Minute * 2
	res.backoff = provider.NewSimpleBackoff
	return res, nil
}

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe uploads the audio and returns the recognized text.
// Whisper does not accept webm containers, such files get transcoded
// first and the temp wav is dropped whatever the call outcome
func (c *OpenAI) Transcribe(ctx context.Context, audioPath string) (*api.TranscribeResult, error) {
	path := audioPath
	if utils.NeedsConversion(path) {
		wav, cleanup, err := c.converter.ToWav(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("can't convert audio: %w", err)
		}
		defer cleanup()
		path = wav
	}

	body, contentType, err := c.makeForm(path)
	if err != nil {
		return nil, err
	}

	res, err := goapp.InvokeWithBackoff(ctx, func() (*whisperResponse, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, c.timeout)
		defer cancelF()
		req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+c.key)
		req = req.WithContext(ctx)
		goapp.Log.Info().Str("url", req.URL.String()).Str("model", c.model).Msg("call")
		resp, err := c.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return nil, goapp.IsRetryableCode(resp.StatusCode), err
		}
		res := &whisperResponse{}
		if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't unmarshal: %w", err)
		}
		return res, false, nil
	}, c.backoff())
	if err != nil {
		return nil, err
	}

	lang := res.Language
	if lang == "" {
		lang = "ja"
	}
	// whisper returns no confidence, keep the fixed estimate
	return &api.TranscribeResult{Text: res.Text, Confidence: 0.9,
		Model: c.model, Language: lang}, nil
}

func (c *OpenAI) makeForm(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("can't open audio: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("can't add file to request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("can't add file content to request: %w", err)
	}
	for k, v := range map[string]string{"model": c.model, "language": "ja",
		"response_format": "verbose_json"} {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("can't add param: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
