package commentary

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func init() {
	Register(OpenAI, openAICompatible(OpenAI))
	Register(OpenRouter, openAICompatible(OpenRouter,
		option.WithHeader("HTTP-Referer", "https://github.com/vovakirdan/snakeladder-arena"),
		option.WithHeader("X-Title", "Snake & Ladder Arena"),
	))
	Register(Groq, openAICompatible(Groq))
	Register(Grok, openAICompatible(Grok))
}

// openAICompatible serves every vendor that speaks the OpenAI chat
// completions protocol; only the base URL and extra headers differ.
func openAICompatible(p Provider, extra ...option.RequestOption) Factory {
	return func(credential, model string, opts Options) Commentator {
		reqOpts := []option.RequestOption{
			option.WithAPIKey(credential),
			option.WithBaseURL(opts.baseURL(p)),
			option.WithHTTPClient(opts.httpClient()),
			option.WithMaxRetries(0),
		}
		reqOpts = append(reqOpts, extra...)
		return &promptClient{
			provider: p,
			model:    model,
			c: &openAICompleter{
				client: openai.NewClient(reqOpts...),
				model:  model,
			},
		}
	}
}

type openAICompleter struct {
	client openai.Client
	model  string
}

func (o *openAICompleter) complete(ctx context.Context, req completion) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *openAICompleter) validate(ctx context.Context) error {
	_, err := o.client.Models.List(ctx)
	return err
}
