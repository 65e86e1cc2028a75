// Package di provides dependency injection factories for creating application components.
package di

import (
	"flowchart_backend/internal/config"
	"flowchart_backend/internal/feature/generation/adapters/gemini"
	"flowchart_backend/internal/feature/generation/adapters/inference"
	"flowchart_backend/internal/feature/generation/domain"
	"flowchart_backend/internal/feature/generation/usecase"
	infrahttp "flowchart_backend/internal/platform/http"
)

// NewGateway creates the generation gateway with every supported model registered.
// Gemini and the inference service share one timeout-bounded HTTP client.
func NewGateway(cfg config.AI) *usecase.Gateway {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	hf := inference.NewClient(inference.Config{
		TranscriptionURL:  cfg.TranscriptionURL,
		TextGenerationURL: cfg.TextGenerationURL,
	}, httpClient)

	return usecase.NewGateway(hf, map[domain.Model]usecase.TextGenerator{
		domain.ModelGemini:      gemini.NewGenerator(httpClient, cfg.GeminiModel, cfg.GeminiBaseURL),
		domain.ModelHuggingFace: hf,
	})
}
