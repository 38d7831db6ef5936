package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	defaultAnthropicBase = "https://api.anthropic.com"
	defaultModel         = "claude-3-haiku-20240307"
	defaultTimeout       = 30 * time.Second
	anthropicVersion     = "2023-06-01"
)

// AnthropicConfig configures the LLM-backed classifier provider.
type AnthropicConfig struct {
	// APIKey authenticates against the messages API.
	APIKey string

	// BaseURL overrides the API endpoint. Defaults to api.anthropic.com.
	BaseURL string

	// Model is the chat model to use. Defaults to a Haiku-class model,
	// which is sufficient for command translation.
	Model string

	// Timeout is the HTTP request timeout. Defaults to 30 s.
	Timeout time.Duration
}

// anthropicProvider implements Provider using the Anthropic messages API.
type anthropicProvider struct {
	cfg    AnthropicConfig
	client *http.Client
}

// NewAnthropic returns a Provider backed by the Anthropic messages API.
// The returned provider is safe for concurrent use.
func NewAnthropic(cfg AnthropicConfig) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &anthropicProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal Anthropic wire types ---

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// promptTmpl is the fixed instruction template. One printf verb is
// substituted at call time: the normalized command text.
const promptTmpl = `Parse this SMAD Picklebot command and extract the intent and parameters.

Command: %s

Available intents:
- help: Show available commands (no params)
- show_deadbeats: Show players with outstanding balances (no params)
- show_balances: Show all balances or specific player (optional: player_name)
- book_court: Book a court (params: date, time, duration_minutes, court - north/south/both)
- create_poll: Create weekly availability poll (no params)
- send_reminders: Send reminders (params: type - vote/payment)
- show_status: Show system status (no params)

For book_court:
- Parse dates like "2/4", "Feb 4", "tomorrow", "next Tuesday"
- Parse times like "7pm", "7:00 PM", "19:00"
- Parse durations like "2 hours", "2hrs", "120 minutes" (default: 120 minutes)
- Parse courts like "north", "south", "both" (default: both)

Return ONLY valid JSON (no markdown, no explanation):
{"intent": "...", "params": {}, "confirmation_required": true/false}

Set confirmation_required=true for: book_court, create_poll, send_reminders
Set confirmation_required=false for: help, show_deadbeats, show_balances, show_status`

// classifySchema validates the shape of the model's JSON output before it is
// trusted. Anything outside this shape is treated as malformed output.
const classifySchema = `{
	"type": "object",
	"required": ["intent"],
	"properties": {
		"intent": {"type": "string"},
		"params": {
			"type": "object",
			"additionalProperties": {"type": ["string", "number", "boolean"]}
		},
		"confirmation_required": {"type": "boolean"}
	}
}`

var compiledSchema = jsonschema.MustCompileString("classify.json", classifySchema)

// Fence patterns strip a surrounding markdown code fence, which some models
// emit despite the no-markdown instruction.
var (
	openFenceRe  = regexp.MustCompile("^```[a-zA-Z]*\n?")
	closeFenceRe = regexp.MustCompile("\n?```$")
)

// wireResult mirrors the JSON object the model is instructed to return.
type wireResult struct {
	Intent               string         `json:"intent"`
	Params               map[string]any `json:"params"`
	ConfirmationRequired bool           `json:"confirmation_required"`
}

// Classify sends the normalized text to the messages API and parses the
// structured classification out of the reply.
func (p *anthropicProvider) Classify(ctx context.Context, text string) (*Result, error) {
	body := anthropicRequest{
		Model:     p.cfg.Model,
		MaxTokens: 256,
		Messages: []anthropicMessage{
			{Role: "user", Content: fmt.Sprintf(promptTmpl, text)},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("intent: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/messages",
		bytes.NewReader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("intent: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("intent: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("intent: read response body: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("intent: decode API response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("intent: API error (%s): %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("intent: API returned HTTP %d", resp.StatusCode)
	}
	if len(apiResp.Content) == 0 || apiResp.Content[0].Text == "" {
		return nil, fmt.Errorf("intent: empty content in API response")
	}

	return parseClassification(apiResp.Content[0].Text)
}

// parseClassification strips any code-fence markup, validates the JSON
// against classifySchema, and converts it into a Result. The confirmation
// flag in the wire object is decoded but the caller (Classifier) always
// overwrites it from the taxonomy.
func parseClassification(content string) (*Result, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = openFenceRe.ReplaceAllString(content, "")
		content = closeFenceRe.ReplaceAllString(content, "")
		content = strings.TrimSpace(content)
	}

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v (raw content: %.200s)", ErrMalformedOutput, err, content)
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	i := Intent(wire.Intent)
	if !Known(i) {
		return nil, fmt.Errorf("%w: unrecognized intent %q", ErrMalformedOutput, wire.Intent)
	}

	res := &Result{
		Intent:               i,
		Params:               renderParams(wire.Params),
		ConfirmationRequired: wire.ConfirmationRequired,
	}
	return res, nil
}

// renderParams flattens the model's params object into strings. Numbers keep
// their shortest decimal representation so "duration_minutes": 120 renders
// as "120".
func renderParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
