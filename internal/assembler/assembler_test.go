package assembler

import (
	"errors"
	"sync"
	"testing"

	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/coordinator"
)

var (
	poemA  = content.Poem{Text: "A", Poet: "X"}
	poemB  = content.Poem{Text: "B", Poet: "Y"}
	imageA = &content.Image{URL: "https://img/a.jpg", BlurHash: "h", Alt: "a"}
)

func TestAssemble(t *testing.T) {
	defaults := content.Defaults()

	tests := []struct {
		name      string
		last      *content.Record
		res       coordinator.Resolution
		wantPoem  content.Poem
		wantImage *content.Image
	}{
		{
			name:      "complete hit",
			res:       coordinator.Resolution{Record: content.NewRecord(poemA, imageA), Outcome: coordinator.Hit},
			wantPoem:  poemA,
			wantImage: imageA,
		},
		{
			name:      "published without image uses default image",
			res:       coordinator.Resolution{Record: content.NewRecord(poemA, nil), Outcome: coordinator.Published},
			wantPoem:  poemA,
			wantImage: defaults.Image,
		},
		{
			name:      "timeout with nothing falls back to defaults",
			res:       coordinator.Resolution{Outcome: coordinator.TimedOut},
			wantPoem:  defaults.Poem,
			wantImage: defaults.Image,
		},
		{
			name:      "published without image keeps previous image",
			last:      &content.Record{Poem: poemA, Image: imageA},
			res:       coordinator.Resolution{Record: content.NewRecord(poemB, nil), Outcome: coordinator.Published},
			wantPoem:  poemB,
			wantImage: imageA,
		},
		{
			name:      "fallback prefers last known",
			last:      &content.Record{Poem: poemB, Image: imageA},
			res:       coordinator.Resolution{Outcome: coordinator.Fallback},
			wantPoem:  poemB,
			wantImage: imageA,
		},
		{
			name:      "fallback keeps the freshly fetched image",
			last:      &content.Record{Poem: poemB},
			res:       coordinator.Resolution{Record: content.NewRecord(content.Poem{}, imageA), Outcome: coordinator.Fallback},
			wantPoem:  poemB,
			wantImage: imageA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(true)
			if tt.last != nil {
				a.LastKnown().Store(*tt.last)
			}
			got, err := a.Assemble(tt.res)
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			if got.Poem != tt.wantPoem {
				t.Errorf("poem = %+v, want %+v", got.Poem, tt.wantPoem)
			}
			if got.Image == nil || *got.Image != *tt.wantImage {
				t.Errorf("image = %+v, want %+v", got.Image, tt.wantImage)
			}
		})
	}
}

func TestAssembleRemembersGoodRecords(t *testing.T) {
	a := New(true)
	if _, err := a.Assemble(coordinator.Resolution{Record: content.NewRecord(poemB, nil), Outcome: coordinator.Published}); err != nil {
		t.Fatal(err)
	}
	got, err := a.Assemble(coordinator.Resolution{Outcome: coordinator.TimedOut})
	if err != nil {
		t.Fatal(err)
	}
	if got.Poem != poemB {
		t.Errorf("poem = %+v, want last known %+v", got.Poem, poemB)
	}

	// fallback text never replaces the last good record
	a.Assemble(coordinator.Resolution{Record: content.NewRecord(poemA, nil), Outcome: coordinator.Fallback})
	if last, _ := a.LastKnown().Load(); last.Poem != poemB {
		t.Errorf("last known = %+v", last.Poem)
	}
}

func TestAssembleCarriesImageAcrossTextOnlyRecords(t *testing.T) {
	a := New(true)
	if _, err := a.Assemble(coordinator.Resolution{Record: content.NewRecord(poemA, imageA), Outcome: coordinator.Published}); err != nil {
		t.Fatal(err)
	}
	got, err := a.Assemble(coordinator.Resolution{Record: content.NewRecord(poemB, nil), Outcome: coordinator.Published})
	if err != nil {
		t.Fatal(err)
	}
	if got.Poem != poemB || got.Image == nil || *got.Image != *imageA {
		t.Errorf("got %+v / %+v, want poem B with image A", got.Poem, got.Image)
	}

	// a later timeout still sees both halves
	got, _ = a.Assemble(coordinator.Resolution{Outcome: coordinator.TimedOut})
	if got.Poem != poemB || got.Image == nil || *got.Image != *imageA {
		t.Errorf("after timeout got %+v / %+v", got.Poem, got.Image)
	}
}

func TestAssembleUnavailable(t *testing.T) {
	a := New(false)
	_, err := a.Assemble(coordinator.Resolution{Outcome: coordinator.TimedOut})
	if !errors.Is(err, content.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	got, err := a.Assemble(coordinator.Resolution{Record: content.NewRecord(poemA, nil), Outcome: coordinator.Hit})
	if err != nil {
		t.Fatal(err)
	}
	if got.Image != nil {
		t.Errorf("image = %+v, want none without defaults", got.Image)
	}
}

func TestAssembleDoesNotAlias(t *testing.T) {
	a := New(true)
	img := &content.Image{URL: "u", BlurHash: "b", Alt: "a"}
	got, _ := a.Assemble(coordinator.Resolution{Record: content.NewRecord(poemA, img), Outcome: coordinator.Hit})
	got.Image.URL = "mutated"
	if last, _ := a.LastKnown().Load(); last.Image.URL == "mutated" {
		t.Error("response shares memory with last known record")
	}
}

func TestLastKnownConcurrent(t *testing.T) {
	var l LastKnown
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); l.Store(content.NewRecord(poemA, nil)) }()
		go func() { defer wg.Done(); l.Load() }()
	}
	wg.Wait()
	if r, ok := l.Load(); !ok || r.Poem != poemA {
		t.Errorf("Load = %+v, %v", r, ok)
	}
}
