// Package app wires configuration into a running service.
package app

import (
	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/assembler"
	"github.com/leonardcser/clockverse/internal/cache"
	"github.com/leonardcser/clockverse/internal/config"
	"github.com/leonardcser/clockverse/internal/coordinator"
	"github.com/leonardcser/clockverse/internal/provider"
	"github.com/leonardcser/clockverse/internal/service"
)

// Providers builds the text and image chains from cfg. Providers without
// credentials or URLs are left out.
func Providers(cfg *config.Config, log *zap.Logger) (*provider.TextChain, *provider.ImageChain) {
	hc := provider.NewHTTPClient(provider.DefaultClientOptions(log.Named("http")))

	var texts []provider.TextGenerator
	if cfg.OpenAIAPIKey != "" {
		texts = append(texts, provider.NewOpenAIText(hc, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel))
	}
	if cfg.PoemFeedURL != "" {
		texts = append(texts, provider.NewFeedText(hc, cfg.PoemFeedURL))
	}

	var images []provider.ImageFetcher
	if cfg.UnsplashAccessKey != "" {
		images = append(images, provider.NewUnsplashImage(hc, cfg.UnsplashBaseURL, cfg.UnsplashAccessKey, cfg.UnsplashTopics))
	}
	if cfg.ImagePageURL != "" {
		images = append(images, provider.NewPageImage(cfg.ImagePageURL))
	}

	if len(texts) == 0 {
		log.Warn("no text provider configured, every bucket will fall back")
	}
	return provider.NewTextChain(log.Named("text"), texts...), provider.NewImageChain(log.Named("image"), images...)
}

// NewService assembles the service on top of kv.
func NewService(cfg *config.Config, kv cache.KV, log *zap.Logger) *service.Service {
	text, images := Providers(cfg, log.Named("provider"))
	coord := coordinator.New(kv, text, images, cfg.Coordinator(), log.Named("coordinator"))
	return service.New(cfg.Policy(), coord, assembler.New(cfg.ServeDefaults), log.Named("service"))
}
