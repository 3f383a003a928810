package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

var (
	ErrAIUnavailable     = errors.New("ai service not configured")
	ErrAIRequestFailed   = errors.New("ai request failed")
	ErrAIResponseInvalid = errors.New("ai response invalid")
)

// Recommendation is the AI's answer to a natural-language product search
type Recommendation struct {
	ProductIDs []string `json:"product_ids"`
	Reasoning  string   `json:"reasoning"`
}

// AIClient calls a generateContent-style text generation endpoint
type AIClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAIClient creates an AI client. An empty apiKey yields ErrAIUnavailable on every call.
func NewAIClient(endpoint, apiKey, model string, timeout time.Duration) *AIClient {
	return &AIClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

// Enabled reports whether an API key is configured
func (c *AIClient) Enabled() bool {
	return c.apiKey != ""
}

// GenerateDescription writes a short marketing description for a product
func (c *AIClient) GenerateDescription(ctx context.Context, name, category string) (string, error) {
	ctx, span := util.StartSpan(ctx, "AIClient.GenerateDescription")
	defer span.End()

	prompt := fmt.Sprintf(
		"Write a compelling, concise product description (max 60 words) for a %s product named %q. "+
			"Focus on water purity, energy savings and reliability. Return plain text only.",
		category, name)

	text, err := c.generate(ctx, "describe", prompt, false)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// SearchProducts asks the AI which catalog products match query
func (c *AIClient) SearchProducts(ctx context.Context, query string, products []models.Product) (*Recommendation, error) {
	ctx, span := util.StartSpan(ctx, "AIClient.SearchProducts")
	defer span.End()

	type entry struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Price       string `json:"price"`
	}
	catalog := make([]entry, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, entry{p.ID, p.Name, p.Category, p.Description, p.Price.String()})
	}
	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"You are a shopping assistant. Given this product catalog as JSON:\n%s\n"+
			"Find the products that best match the customer request: %q.\n"+
			`Respond with JSON only: {"product_ids": ["..."], "reasoning": "one sentence"}`,
		catalogJSON, query)

	text, err := c.generate(ctx, "search", prompt, true)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIResponseInvalid, err)
	}
	if rec.ProductIDs == nil {
		rec.ProductIDs = []string{}
	}
	return &rec, nil
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

func (c *AIClient) generate(ctx context.Context, op, prompt string, jsonOut bool) (string, error) {
	if !c.Enabled() {
		return "", ErrAIUnavailable
	}

	start := time.Now()
	defer func() {
		util.AIRequestLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	reqBody := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	}
	if jsonOut {
		reqBody.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAIRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("AI request failed", zap.String("op", op), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAIRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response failed", ErrAIResponseInvalid)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("AI request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d", ErrAIRequestFailed, resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAIResponseInvalid, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrAIResponseInvalid)
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// stripCodeFence removes a ```json fence some models wrap JSON answers in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
