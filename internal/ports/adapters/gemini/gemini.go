// Package gemini cleans lyric documents with the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/forPelevin/lyricsmith/internal/domain/cleanup"
	"github.com/forPelevin/lyricsmith/internal/domain/script"
	"github.com/forPelevin/lyricsmith/internal/ports/adapters/endpoint"
	"github.com/forPelevin/lyricsmith/internal/types"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	requestTimeout = 90 * time.Second
)

type Adapter struct {
	key        string
	model      string
	baseURL    string
	httpClient *http.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{
		key:        apiKey,
		model:      model,
		baseURL:    endpoint.Gemini.Normalize(baseURL),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (a *Adapter) Name() string { return "gemini" }

func (a *Adapter) Clean(ctx context.Context, doc types.Document) (types.Document, error) {
	if len(doc.Lines) == 0 {
		return doc, nil
	}
	prompt, err := cleanup.Prompt(doc)
	if err != nil {
		return doc, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	client, err := genai.NewClient(reqCtx, &genai.ClientConfig{
		APIKey:      a.key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  a.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: a.baseURL + "/"},
	})
	if err != nil {
		return doc, fmt.Errorf("gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(reqCtx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   replySchema(),
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return doc, fmt.Errorf("gemini timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return doc, fmt.Errorf("gemini: %s", cleanup.Truncate(strings.ReplaceAll(err.Error(), a.key, "[REDACTED]"), 400))
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return doc, errors.New("gemini: empty response")
	}
	out, err := cleanup.Apply(doc, text, script.Devanagari)
	if err != nil {
		return doc, fmt.Errorf("gemini: %w", err)
	}
	return out, nil
}

func replySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"lines": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"idx":  {Type: genai.TypeInteger},
						"text": {Type: genai.TypeString},
					},
					Required: []string{"idx", "text"},
				},
			},
		},
		Required: []string{"lines"},
	}
}
