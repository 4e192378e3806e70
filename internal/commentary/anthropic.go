package commentary

import (
	"context"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

func init() {
	Register(Anthropic, func(credential, model string, opts Options) Commentator {
		return &promptClient{
			provider: Anthropic,
			model:    model,
			c: &anthropicCompleter{
				baseURL:    opts.baseURL(Anthropic),
				credential: credential,
				model:      model,
				http:       opts.httpClient(),
			},
		}
	})
}

type anthropicCompleter struct {
	baseURL    string
	credential string
	model      string
	http       *http.Client
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *anthropicCompleter) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.credential,
		"anthropic-version": anthropicVersion,
	}
}

func (a *anthropicCompleter) complete(ctx context.Context, req completion) (string, error) {
	temp := req.Temperature
	body := anthropicRequest{
		Model:       a.model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: &temp,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	var resp anthropicResponse
	if err := doJSON(ctx, a.http, http.MethodPost, a.baseURL+"/v1/messages", a.headers(), body, &resp); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// validate sends the smallest possible message; a rejected key fails with 401.
func (a *anthropicCompleter) validate(ctx context.Context) error {
	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: 10,
		Messages:  []anthropicMessage{{Role: "user", Content: "Hi"}},
	}
	return doJSON(ctx, a.http, http.MethodPost, a.baseURL+"/v1/messages", a.headers(), body, nil)
}
