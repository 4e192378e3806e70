package commentary

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

func init() {
	Register(Gemini, func(credential, model string, opts Options) Commentator {
		return &promptClient{
			provider: Gemini,
			model:    model,
			c: &geminiCompleter{
				baseURL:    opts.baseURL(Gemini),
				credential: credential,
				model:      model,
				http:       opts.httpClient(),
			},
		}
	})
}

type geminiCompleter struct {
	baseURL    string
	credential string
	model      string
	http       *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float64 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *geminiCompleter) headers() map[string]string {
	return map[string]string{"x-goog-api-key": g.credential}
}

// complete sends the persona and the prompt as one user turn.
func (g *geminiCompleter) complete(ctx context.Context, req completion) (string, error) {
	var body geminiRequest
	body.Contents = []geminiContent{{
		Role:  "user",
		Parts: []geminiPart{{Text: req.System + "\n\n" + req.Prompt}},
	}}
	body.GenerationConfig.MaxOutputTokens = req.MaxTokens
	body.GenerationConfig.Temperature = req.Temperature

	endpoint := g.baseURL + "/v1beta/models/" + url.PathEscape(g.model) + ":generateContent"
	var resp geminiResponse
	if err := doJSON(ctx, g.http, http.MethodPost, endpoint, g.headers(), body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

func (g *geminiCompleter) validate(ctx context.Context) error {
	return doJSON(ctx, g.http, http.MethodGet, g.baseURL+"/v1beta/models", g.headers(), nil, nil)
}
