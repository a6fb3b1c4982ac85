package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mmcdole/gofeed"

	"github.com/leonardcser/clockverse/internal/content"
)

// FeedText serves the latest item of a poem-of-the-day feed. It does not
// know about the requested time, which is why it sits behind the generator.
type FeedText struct {
	parser  *gofeed.Parser
	feedURL string
}

func NewFeedText(hc *HTTPClient, feedURL string) *FeedText {
	fp := gofeed.NewParser()
	fp.Client = hc.StandardClient()
	fp.UserAgent = NextUserAgent()
	return &FeedText{parser: fp, feedURL: feedURL}
}

func (f *FeedText) GenerateText(ctx context.Context, req content.Request) (content.Poem, error) {
	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		var herr gofeed.HTTPError
		if errors.As(err, &herr) && herr.StatusCode == http.StatusTooManyRequests {
			return content.Poem{}, fmt.Errorf("feed: %w", content.ErrRateLimited)
		}
		return content.Poem{}, fmt.Errorf("feed: %w", err)
	}

	for _, item := range feed.Items {
		html := item.Content
		if html == "" {
			html = item.Description
		}
		if strings.TrimSpace(html) == "" {
			continue
		}
		md, err := htmltomarkdown.ConvertString(html)
		if err != nil {
			return content.Poem{}, fmt.Errorf("feed: convert item: %w", err)
		}
		text := tidyVerses(md)
		if text == "" {
			continue
		}
		return content.Poem{Text: text, Poet: itemAuthor(feed, item)}, nil
	}
	return content.Poem{}, errors.New("feed: no usable items")
}

func itemAuthor(feed *gofeed.Feed, item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return feed.Title
}

// tidyVerses drops markdown hard-break padding and blank runs.
func tidyVerses(md string) string {
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(strings.TrimSuffix(strings.TrimRight(l, " "), "\\"), " ")
		if l == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
