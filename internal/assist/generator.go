// Package assist generates session marketing copy and cover images through
// the Gemini generateContent API. The generator is optional: without an API
// key every call fails fast with a clear error and the planner works on
// manually written content.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/session-planner/internal/application"
)

const (
	textModel  = "gemini-2.5-flash"
	imageModel = "gemini-2.5-flash-image"
)

// Source points at a web page the generated description was grounded on.
type Source struct {
	URI   string
	Title string
}

// Description carries generated copy plus its grounding sources.
type Description struct {
	Text    string
	Sources []Source
}

// Generator calls the generateContent endpoint for text and images.
type Generator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGenerator wires a content generator. An empty apiKey leaves the
// generator unconfigured.
func NewGenerator(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) *Generator {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{apiKey: apiKey, baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// Configured reports whether an API key is present.
func (g *Generator) Configured() bool {
	return g != nil && g.apiKey != ""
}

type generateRequest struct {
	Contents []content    `json:"contents"`
	Tools    []tool       `json:"tools,omitempty"`
	Config   *genConfig   `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type genConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// Describe generates a short promotional description for a session and
// returns it together with the web sources the model grounded on.
func (g *Generator) Describe(ctx context.Context, title string, program application.Program) (Description, error) {
	if !g.Configured() {
		return Description{}, application.ErrAssistUnavailable
	}

	prompt := fmt.Sprintf(
		"Write an enthusiastic, concise promotional description (maximum 80 words) for an educational session titled %q in the %s program. Address prospective participants directly.",
		title, program,
	)

	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	}

	response, err := g.generate(ctx, textModel, request)
	if err != nil {
		return Description{}, err
	}

	if len(response.Candidates) == 0 {
		return Description{}, fmt.Errorf("assist: empty response")
	}
	candidate := response.Candidates[0]

	var text string
	for _, p := range candidate.Content.Parts {
		text += p.Text
	}
	if text == "" {
		return Description{}, fmt.Errorf("assist: response contained no text")
	}

	var sources []Source
	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		if chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}

	g.logger.InfoContext(ctx, "description generated", "title", title, "sources", len(sources))
	return Description{Text: text, Sources: sources}, nil
}

// Illustrate generates a cover image for a session and returns it as a data
// URL suitable for direct embedding.
func (g *Generator) Illustrate(ctx context.Context, title string, size string) (string, error) {
	if !g.Configured() {
		return "", application.ErrAssistUnavailable
	}
	if size == "" {
		size = "16:9"
	}

	prompt := fmt.Sprintf(
		"Create a vibrant, modern illustration (aspect ratio %s) announcing an educational session titled %q. Flat design, friendly colors, no text in the image.",
		size, title,
	)

	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config:   &genConfig{ResponseModalities: []string{"IMAGE"}},
	}

	response, err := g.generate(ctx, imageModel, request)
	if err != nil {
		return "", err
	}

	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			g.logger.InfoContext(ctx, "image generated", "title", title, "mime_type", mime)
			return "data:" + mime + ";base64," + p.InlineData.Data, nil
		}
	}

	return "", fmt.Errorf("assist: response contained no image data")
}

func (g *Generator) generate(ctx context.Context, model string, request generateRequest) (generateResponse, error) {
	var out generateResponse

	body, err := json.Marshal(request)
	if err != nil {
		return out, fmt.Errorf("assist: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("assist: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("assist: call model: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("assist: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("assist: model returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("assist: decode response: %w", err)
	}
	return out, nil
}
