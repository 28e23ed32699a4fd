// Package commentary adapts text-generation services to game.Commentator.
//
// Gemini talks to the Generative Language REST API (generateContent).
// Disabled is wired when no API key is configured and never touches the
// network.
package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-3-flash-preview"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Config configures a Gemini commentator.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	TopP        float64
	HTTPClient  *http.Client
}

// Gemini asks a Gemini model for game-master commentary.
type Gemini struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	topP        float64
	httpClient  *http.Client
}

// New returns a Gemini commentator, or Disabled when cfg has no API key.
func New(cfg Config) game.Commentator {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}
	}
	return NewGemini(cfg)
}

// NewGemini builds a Gemini client, filling unset fields with defaults.
func NewGemini(cfg Config) *Gemini {
	g := &Gemini{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		httpClient:  cfg.HTTPClient,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.temperature == 0 {
		g.temperature = 0.8
	}
	if g.topP == 0 {
		g.topP = 0.9
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return g
}

// Model reports the configured model id.
func (g *Gemini) Model() string { return g.model }

// Comment implements game.Commentator with a single generateContent call.
func (g *Gemini) Comment(ctx context.Context, req game.CommentaryRequest) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature: g.temperature,
			TopP:        g.topP,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini request failed: %s: %s", resp.Status, apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini request failed: %s", resp.Status)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	text := genResp.text()
	if text == "" {
		return "", game.ErrEmptyCommentary
	}
	return text, nil
}

// Disabled is the commentator used when no credential is configured.
type Disabled struct{}

// Comment always reports game.ErrCommentaryUnavailable without side effects.
func (Disabled) Comment(context.Context, game.CommentaryRequest) (string, error) {
	return "", game.ErrCommentaryUnavailable
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text joins the parts of the first candidate.
func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var parts []string
	for _, p := range r.Candidates[0].Content.Parts {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
