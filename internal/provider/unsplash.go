package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leonardcser/clockverse/internal/content"
)

const DefaultUnsplashBaseURL = "https://api.unsplash.com"

// UnsplashImage pulls a random portrait photo from a set of topics.
type UnsplashImage struct {
	http      *HTTPClient
	baseURL   string
	accessKey string
	topics    string
}

func NewUnsplashImage(hc *HTTPClient, baseURL, accessKey, topics string) *UnsplashImage {
	if baseURL == "" {
		baseURL = DefaultUnsplashBaseURL
	}
	return &UnsplashImage{http: hc, baseURL: strings.TrimRight(baseURL, "/"), accessKey: accessKey, topics: topics}
}

func (u *UnsplashImage) FetchImage(ctx context.Context) (*content.Image, error) {
	q := url.Values{"orientation": {"portrait"}}
	if u.topics != "" {
		q.Set("topics", u.topics)
	}
	resp, err := u.http.Do(ctx, http.MethodGet, u.baseURL+"/photos/random?"+q.Encode(), nil, map[string]string{
		"Authorization":  "Client-ID " + u.accessKey,
		"Accept-Version": "v1",
	})
	if err != nil {
		return nil, fmt.Errorf("unsplash: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("unsplash: read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("unsplash: status %d: %w", resp.StatusCode, content.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unsplash: status %d", resp.StatusCode)
	}

	res := gjson.GetManyBytes(raw, "urls.full", "urls.regular", "blur_hash", "alt_description", "description")
	img := &content.Image{URL: res[0].String(), BlurHash: res[2].String(), Alt: res[3].String()}
	if img.URL == "" {
		img.URL = res[1].String()
	}
	if img.URL == "" {
		return nil, fmt.Errorf("unsplash: response has no image url")
	}
	if img.BlurHash == "" {
		img.BlurHash = content.PlaceholderBlur
	}
	if img.Alt == "" {
		img.Alt = res[4].String()
	}
	return img, nil
}
