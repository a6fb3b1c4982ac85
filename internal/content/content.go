package content

import (
	"errors"
	"time"
)

// Poem is the text half of a record. Text and Poet always come from the
// same provider call.
type Poem struct {
	Text string `json:"poem"`
	Poet string `json:"poet"`
}

// Image is the photograph half of a record.
type Image struct {
	URL      string `json:"imageUrl"`
	BlurHash string `json:"blurhash"`
	Alt      string `json:"imageAlt"`
}

// Record is what gets cached per bucket and returned to clients.
// A nil Image means the image provider came back empty.
type Record struct {
	Poem
	*Image
}

// NewRecord builds a record from one text result and an optional image.
func NewRecord(p Poem, img *Image) Record {
	return Record{Poem: p, Image: img}
}

func (r Record) HasText() bool  { return r.Text != "" }
func (r Record) HasImage() bool { return r.Image != nil && r.Image.URL != "" }

// Request carries what a text provider needs to write the poem for a bucket.
type Request struct {
	// Time is the bucket start in the client's zone.
	Time    time.Time
	Poet    string
	Variant string
}

// Clock renders the request time the way it is shown on the display.
func (r Request) Clock() string {
	return r.Time.Format("03:04 PM")
}

var (
	// ErrProvider marks a failed generation call.
	ErrProvider = errors.New("provider failure")
	// ErrRateLimited is a hard quota signal from a provider.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrUnavailable means there is nothing at all to serve.
	ErrUnavailable = errors.New("content unavailable")
)
