package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/coordinator"
	"github.com/leonardcser/clockverse/internal/service"
)

type fakeService struct {
	resp service.Response
	err  error
	got  bucket.Params
}

func (f *fakeService) Current(_ context.Context, p bucket.Params) (service.Response, error) {
	f.got = p
	return f.resp, f.err
}

func callTool(t *testing.T, svc Current, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = CurrentVerseName
	req.Params.Arguments = args
	res, err := CurrentVerseHandler(svc)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	return tc.Text
}

func TestCurrentVerse(t *testing.T) {
	start := time.Date(2026, 10, 17, 12, 34, 0, 0, time.UTC)
	svc := &fakeService{resp: service.Response{
		Record:  content.NewRecord(content.Poem{Text: "Twelve thirty-four", Poet: "Mary Oliver"}, &content.Image{URL: "https://img/a.jpg", Alt: "a harbour"}),
		Outcome: coordinator.Hit,
		Bucket:  bucket.Keys{Start: start},
	}}

	res := callTool(t, svc, map[string]any{"tz": "Europe/Paris", "context": "lobby"})
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"Twelve thirty-four", "in the style of Mary Oliver", "https://img/a.jpg", "Photo: a harbour", "12:34 UTC, hit"} {
		if !strings.Contains(text, want) {
			t.Errorf("output misses %q:\n%s", want, text)
		}
	}
	if svc.got != (bucket.Params{TimeZone: "Europe/Paris", Variant: "lobby"}) {
		t.Errorf("params = %+v", svc.got)
	}
}

func TestCurrentVerseDefaultsParams(t *testing.T) {
	svc := &fakeService{resp: service.Response{Record: content.NewRecord(content.Poem{Text: "x"}, nil)}}
	callTool(t, svc, nil)
	if svc.got != (bucket.Params{}) {
		t.Errorf("params = %+v", svc.got)
	}
}

func TestCurrentVerseErrors(t *testing.T) {
	res := callTool(t, &fakeService{err: content.ErrUnavailable}, nil)
	if !res.IsError {
		t.Error("unavailable content should be a tool error")
	}

	limited := &fakeService{
		resp: service.Response{Record: content.Defaults(), Outcome: coordinator.Fallback},
		err:  errors.Join(content.ErrRateLimited),
	}
	res = callTool(t, limited, nil)
	if res.IsError {
		t.Error("rate limited response carries fallback content and should not fail")
	}
}
