package rag

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// OpenAIGeneratorConfig configures the OpenAI chat completion client.
type OpenAIGeneratorConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	SystemPrompt string
}

// DefaultOpenAIGeneratorConfig returns the default generator configuration.
func DefaultOpenAIGeneratorConfig() OpenAIGeneratorConfig {
	return OpenAIGeneratorConfig{
		Model:        "gpt-4o-mini",
		Temperature:  0.2,
		SystemPrompt: "You are a helpful assistant. Answer using only the provided context.",
	}
}

// OpenAIGenerator produces completions through the OpenAI chat API.
type OpenAIGenerator struct {
	client openai.Client
	cfg    OpenAIGeneratorConfig
	log    *logrus.Logger
}

// NewOpenAIGenerator returns a generator backed by the OpenAI chat API. Zero
// config fields fall back to their defaults; a nil logger falls back to a
// fresh one.
func NewOpenAIGenerator(cfg OpenAIGeneratorConfig, log *logrus.Logger) *OpenAIGenerator {
	defaults := DefaultOpenAIGeneratorConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaults.SystemPrompt
	}
	if log == nil {
		log = logrus.New()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		log:    log,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.cfg.SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.cfg.Temperature),
	})
	if err != nil {
		return "", errors.Wrap(err, "unable to create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCompletion
	}

	g.log.WithField("model", g.cfg.Model).Debug("generated completion")

	return resp.Choices[0].Message.Content, nil
}

// StaticGenerator always answers with the same text. It keeps query flows
// runnable without an API key.
type StaticGenerator struct {
	Answer string
}

func (g StaticGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.Answer, nil
}

var (
	_ Generator = (*OpenAIGenerator)(nil)
	_ Generator = StaticGenerator{}
)
