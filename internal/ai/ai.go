package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/matheuskafuri/menuscore/internal/config"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/score"
	"google.golang.org/api/option"
)

// ErrNoScore means the model answered without a usable SCORE line.
var ErrNoScore = errors.New("model response has no score")

// provider sends one prompt and returns the model's text.
type provider interface {
	call(ctx context.Context, prompt string) (string, error)
}

// Scorer rates items with a language model. When the model fails and
// Fallback is set, the item is scored by Fallback instead.
type Scorer struct {
	llm      provider
	closer   io.Closer
	Fallback score.Scorer
}

// New creates a Scorer from the given AI config.
func New(ctx context.Context, cfg *config.AIConfig, apiKey string) (*Scorer, error) {
	if cfg == nil || apiKey == "" {
		return nil, fmt.Errorf("AI not configured")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cfg.Provider {
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return &Scorer{llm: &claudeProvider{apiKey: apiKey, model: model, client: client, endpoint: claudeEndpoint}}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return &Scorer{llm: &openaiProvider{apiKey: apiKey, model: model, client: client, endpoint: openaiEndpoint}}, nil
	case "gemini":
		model := cfg.Model
		if model == "" {
			model = "gemini-1.5-flash"
		}
		gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return &Scorer{llm: &geminiProvider{model: gc.GenerativeModel(model)}, closer: gc}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: claude, openai, gemini)", cfg.Provider)
	}
}

// Close releases the provider's client, if it holds one.
func (s *Scorer) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Score asks the model for a 0-100 rating. Items without nutrients are left
// unscored without a model call.
func (s *Scorer) Score(ctx context.Context, in score.Input) (score.Result, error) {
	if in.Nutrients == nil {
		return score.Compute(nil, score.DefaultWeights()), nil
	}
	res, err := s.rate(ctx, in)
	if err != nil && s.Fallback != nil {
		return s.Fallback.Score(ctx, in)
	}
	return res, err
}

func (s *Scorer) rate(ctx context.Context, in score.Input) (score.Result, error) {
	text, err := s.llm.call(ctx, buildPrompt(in))
	if err != nil {
		return score.Result{}, err
	}
	n, reason, err := parseScoreResponse(text)
	if err != nil {
		return score.Result{}, err
	}
	if reason == "" {
		reason = "Model rating"
	}
	return score.Result{Score: &n, Basis: dining.Model, Reasoning: reason}, nil
}

const scorePrompt = `Rate how healthy this campus dining hall item is on a 0-100 scale. Favour protein density and fiber; penalise saturated fat, sodium and added sugar. Diner preferences: %s.

Item: %s (%s)
Nutrition per serving:
%s
Ingredients: %s

Format your response EXACTLY like this:
SCORE: <integer 0-100>
REASON: <short phrase, max 60 chars>`

func buildPrompt(in score.Input) string {
	ingredients := in.Nutrients.Ingredients
	if ingredients == "" {
		ingredients = "not listed"
	}
	return fmt.Sprintf(scorePrompt, in.Preferences, in.Stub.Name, in.Stub.Meal, formatNutrients(in.Nutrients), ingredients)
}

func formatNutrients(rec *dining.NutrientRecord) string {
	rows := []struct {
		label string
		v     *float64
		unit  string
	}{
		{"Calories", rec.Calories, "kcal"},
		{"Protein", rec.ProteinG, "g"},
		{"Dietary fiber", rec.FiberG, "g"},
		{"Total carbohydrate", rec.TotalCarbG, "g"},
		{"Saturated fat", rec.SaturatedFatDV, "% DV"},
		{"Sodium", rec.SodiumMg, "mg"},
		{"Sodium", rec.SodiumDV, "% DV"},
		{"Added sugars", rec.AddedSugarsG, "g"},
	}
	var sb strings.Builder
	for _, r := range rows {
		if r.v == nil {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %g %s\n", r.label, *r.v, r.unit)
	}
	if sb.Len() == 0 {
		return "- not stated\n"
	}
	return sb.String()
}

func parseScoreResponse(text string) (int, string, error) {
	var (
		n      int
		found  bool
		reason string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*"))
		switch {
		case strings.HasPrefix(line, "SCORE:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "SCORE:"))
			v, _, _ = strings.Cut(v, "/")
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			n, found = clamp(int(math.Round(math.Max(-1, math.Min(101, f))))), true
		case strings.HasPrefix(line, "REASON:"):
			reason = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
			if r := []rune(reason); len(r) > 60 {
				reason = string(r[:60])
			}
		}
	}
	if !found {
		return 0, "", ErrNoScore
	}
	return n, reason, nil
}

func clamp(n int) int {
	return max(0, min(100, n))
}

// --- Claude provider ---

const claudeEndpoint = "https://api.anthropic.com/v1/messages"

type claudeProvider struct {
	apiKey   string
	model    string
	client   *http.Client
	endpoint string
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: 128,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("claude API %d: %s", resp.StatusCode, string(b))
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Content) == 0 {
		return "", fmt.Errorf("empty claude response")
	}
	return cr.Content[0].Text, nil
}

// --- OpenAI provider ---

const openaiEndpoint = "https://api.openai.com/v1/chat/completions"

type openaiProvider struct {
	apiKey   string
	model    string
	client   *http.Client
	endpoint string
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", err
	}
	if len(or.Choices) == 0 {
		return "", fmt.Errorf("empty openai response")
	}
	return or.Choices[0].Message.Content, nil
}

// --- Gemini provider ---

type geminiProvider struct {
	model *genai.GenerativeModel
}

func (g *geminiProvider) call(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty gemini response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}
