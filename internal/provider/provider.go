// Package provider holds the expensive, failure-prone generation step: one
// poem and one photograph per bucket, each behind an ordered fallback chain.
package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/content"
)

// TextGenerator writes the poem for a bucket.
type TextGenerator interface {
	GenerateText(ctx context.Context, req content.Request) (content.Poem, error)
}

// ImageFetcher finds the photograph for a bucket.
type ImageFetcher interface {
	FetchImage(ctx context.Context) (*content.Image, error)
}

// TextChain tries each generator in order and returns the first poem.
// When every generator fails the error wraps content.ErrProvider together
// with each individual failure, so callers can still spot ErrRateLimited.
type TextChain struct {
	gens []TextGenerator
	log  *zap.Logger
}

func NewTextChain(log *zap.Logger, gens ...TextGenerator) *TextChain {
	return &TextChain{gens: gens, log: log}
}

func (c *TextChain) GenerateText(ctx context.Context, req content.Request) (content.Poem, error) {
	var errs []error
	for _, g := range c.gens {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		poem, err := g.GenerateText(ctx, req)
		if err == nil && poem.Text == "" {
			err = errors.New("empty poem")
		}
		if err == nil {
			if poem.Poet == "" {
				poem.Poet = req.Poet
			}
			return poem, nil
		}
		name := fmt.Sprintf("%T", g)
		c.log.Warn("text provider failed", zap.String("provider", name), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no text providers configured"))
	}
	return content.Poem{}, fmt.Errorf("%w: %w", content.ErrProvider, errors.Join(errs...))
}

// ImageChain tries each fetcher in order. An image-less record is valid, so
// exhausting the chain yields a nil image and no error.
type ImageChain struct {
	fetchers []ImageFetcher
	log      *zap.Logger
}

func NewImageChain(log *zap.Logger, fetchers ...ImageFetcher) *ImageChain {
	return &ImageChain{fetchers: fetchers, log: log}
}

func (c *ImageChain) FetchImage(ctx context.Context) (*content.Image, error) {
	for _, f := range c.fetchers {
		if ctx.Err() != nil {
			return nil, nil
		}
		img, err := f.FetchImage(ctx)
		if err == nil && img != nil && img.URL != "" {
			return img, nil
		}
		if err == nil {
			err = errors.New("no image")
		}
		c.log.Warn("image provider failed", zap.String("provider", fmt.Sprintf("%T", f)), zap.Error(err))
	}
	return nil, nil
}
