package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/leonardcser/clockverse/internal/content"
)

const pageRequestTimeout = 10 * time.Second

// PageImage reads the Open Graph image of a web page. Pages publish no blur
// digest, so the placeholder digest is used.
type PageImage struct {
	pageURL string
}

func NewPageImage(pageURL string) *PageImage {
	return &PageImage{pageURL: pageURL}
}

func (p *PageImage) FetchImage(ctx context.Context) (*content.Image, error) {
	if !strings.HasPrefix(p.pageURL, "http://") && !strings.HasPrefix(p.pageURL, "https://") {
		return nil, errors.New("page image: url must start with http:// or https://")
	}
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(pageRequestTimeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", NextUserAgent())
		r.Headers.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	})

	var img content.Image
	c.OnHTML("head", func(e *colly.HTMLElement) {
		src := firstContent(e.DOM, `meta[property="og:image"]`, `meta[name="twitter:image"]`)
		if src != "" {
			img.URL = e.Request.AbsoluteURL(src)
		}
		img.Alt = firstContent(e.DOM, `meta[property="og:image:alt"]`, `meta[name="twitter:image:alt"]`, `meta[property="og:title"]`)
	})

	if err := c.Visit(p.pageURL); err != nil {
		return nil, fmt.Errorf("page image: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if img.URL == "" {
		return nil, errors.New("page image: no og:image on page")
	}
	img.BlurHash = content.PlaceholderBlur
	return &img, nil
}

func firstContent(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if v := strings.TrimSpace(sel.Find(s).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}
