package content

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecordJSONFlattened(t *testing.T) {
	r := NewRecord(Poem{Text: "A", Poet: "X"}, &Image{URL: "u", BlurHash: "b", Alt: "a"})
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"poem":"A","poet":"X","imageUrl":"u","blurhash":"b","imageAlt":"a"}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestRecordWithoutImage(t *testing.T) {
	r := NewRecord(Poem{Text: "A", Poet: "X"}, nil)
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"poem":"A","poet":"X"}` {
		t.Errorf("unexpected json %s", b)
	}

	var back Record
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.HasImage() {
		t.Error("image should stay absent")
	}
	if !back.HasText() || back.Poet != "X" {
		t.Errorf("text lost: %+v", back.Poem)
	}
}

func TestDefaultsComplete(t *testing.T) {
	d := Defaults()
	if !d.HasText() || d.Poet == "" {
		t.Error("defaults must carry text and attribution")
	}
	if !d.HasImage() || d.BlurHash == "" || d.Alt == "" {
		t.Error("defaults must carry a full image")
	}
	if DefaultImage() == d.Image {
		t.Error("DefaultImage should return a fresh value")
	}
}

func TestRequestClock(t *testing.T) {
	r := Request{Time: time.Date(2026, 10, 17, 14, 5, 0, 0, time.UTC)}
	if got := r.Clock(); got != "02:05 PM" {
		t.Errorf("Clock() = %q", got)
	}
}
