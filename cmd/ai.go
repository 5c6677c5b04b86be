package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/cv-refiner/internal/ai"
	"github.com/spigell/cv-refiner/internal/ai/gemini"
	"github.com/spigell/cv-refiner/internal/ai/openrouter"
	"github.com/spigell/cv-refiner/internal/secrets"

	"go.uber.org/zap"
)

// generatorFactory returns a generator bound to a model. An empty model means the provider default.
type generatorFactory func(model string) ai.Generator

type generatorOptions struct {
	JSON        bool
	Temperature *float64
}

func newGeneratorFactory(ctx context.Context, config *Config, opts generatorOptions, logger *zap.Logger) (generatorFactory, error) {
	provider := strings.TrimSpace(strings.ToLower(config.Provider))

	switch provider {
	case "", openrouter.Provider:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openrouter api key",
			Value: config.OpenRouter.APIKey,
			File:  config.OpenRouter.APIKeyFile,
			Env:   "OPENROUTER_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set openrouter.api-key-file or OPENROUTER_API_KEY)", err)
		}

		cfg := config.OpenRouter
		cfg.APIKey = apiKey
		cfg.JSON = opts.JSON
		cfg.Temperature = opts.Temperature

		client, err := openrouter.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		return func(model string) ai.Generator { return client.WithModel(model) }, nil

	case gemini.Provider:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: config.Gemini.APIKey,
			File:  config.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		var temperature *float32
		if opts.Temperature != nil {
			t := float32(*opts.Temperature)
			temperature = &t
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
			Model:        config.Gemini.Model,
			MaxRetries:   config.Gemini.MaxRetries,
			MaxLogLength: config.Gemini.MaxLogLength,
			Temperature:  temperature,
			JSON:         opts.JSON,
		}, logger)
		if err != nil {
			return nil, err
		}

		return func(model string) ai.Generator {
			// OpenRouter style vendor/model ids are not Gemini models.
			if strings.Contains(model, "/") {
				return generator
			}
			return generator.WithModel(model)
		}, nil

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}
}
