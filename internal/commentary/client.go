package commentary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("commentary: empty response")

// Commentator is one player's connection to a language model.
// Implementations return errors; choosing a fallback is the caller's job.
type Commentator interface {
	Provider() Provider
	Model() string
	PreRoll(ctx context.Context, c GameContext) (string, error)
	PostRoll(ctx context.Context, c PostRollContext) (string, error)
	TrashTalk(ctx context.Context, c PostRollContext) (string, error)
	ValidateCredential(ctx context.Context) bool
}

// Options tune how a Commentator reaches its provider.
type Options struct {
	// BaseURL replaces the catalog endpoint, e.g. for a proxy or a test server.
	BaseURL    string
	HTTPClient *http.Client
}

func (o Options) baseURL(p Provider) string {
	if o.BaseURL != "" {
		return strings.TrimRight(o.BaseURL, "/")
	}
	info, _ := Lookup(p)
	return info.BaseURL
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return http.DefaultClient
}

// Factory builds a Commentator for a credential and model.
type Factory func(credential, model string, opts Options) Commentator

var (
	factories = make(map[Provider]Factory)
	mu        sync.RWMutex
)

// Register adds a provider factory. Called from init functions.
// Panics if the provider is already registered.
func Register(p Provider, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[p]; exists {
		panic(fmt.Sprintf("commentary: provider %q already registered", p))
	}
	factories[p] = f
}

// Registered returns the tags that have a factory, sorted.
func Registered() []Provider {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Provider, 0, len(factories))
	for p := range factories {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// New creates a Commentator for provider p. An empty model selects the
// provider's default.
func New(p Provider, credential, model string, opts Options) (Commentator, error) {
	mu.RLock()
	f, ok := factories[p]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, p)
	}
	if strings.TrimSpace(model) == "" {
		info, _ := Lookup(p)
		model = info.DefaultModel
	}
	return f(credential, model, opts), nil
}

// completion is a single provider-neutral chat request.
type completion struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// completer is the per-vendor transport behind promptClient.
type completer interface {
	complete(ctx context.Context, req completion) (string, error)
	validate(ctx context.Context) error
}

// promptClient turns game contexts into prompts and delegates to a completer.
type promptClient struct {
	provider Provider
	model    string
	c        completer
}

func (p *promptClient) Provider() Provider { return p.provider }
func (p *promptClient) Model() string      { return p.model }

func (p *promptClient) PreRoll(ctx context.Context, c GameContext) (string, error) {
	return p.ask(ctx, PreRollPrompt(c), preRollTokens, defaultTemperature)
}

func (p *promptClient) PostRoll(ctx context.Context, c PostRollContext) (string, error) {
	return p.ask(ctx, PostRollPrompt(c), postRollTokens, defaultTemperature)
}

func (p *promptClient) TrashTalk(ctx context.Context, c PostRollContext) (string, error) {
	c.PlayerModel = p.model
	return p.ask(ctx, TrashTalkPrompt(c), trashTalkTokens, trashTalkTemperature)
}

func (p *promptClient) ValidateCredential(ctx context.Context) bool {
	return p.c.validate(ctx) == nil
}

func (p *promptClient) ask(ctx context.Context, prompt string, maxTokens int, temp float64) (string, error) {
	text, err := p.c.complete(ctx, completion{
		System:      SystemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temp,
	})
	if err != nil {
		return "", fmt.Errorf("commentary: %s: %w", p.provider, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w from %s", ErrEmptyResponse, p.provider)
	}
	return text, nil
}
