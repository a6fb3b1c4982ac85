// Package assembler turns whatever the coordinator resolved into the record a
// client sees, filling missing halves from the last good record and then from
// compiled-in defaults.
package assembler

import (
	"sync/atomic"

	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/coordinator"
)

// LastKnown holds the most recent record this process served from the cache
// or produced itself. It is safe for concurrent use.
type LastKnown struct {
	p atomic.Pointer[content.Record]
}

func (l *LastKnown) Load() (content.Record, bool) {
	if r := l.p.Load(); r != nil {
		return *r, true
	}
	return content.Record{}, false
}

func (l *LastKnown) Store(r content.Record) {
	if r.Image != nil {
		r.Image = copyImage(r.Image)
	}
	l.p.Store(&r)
}

type Assembler struct {
	defaults      content.Record
	serveDefaults bool
	last          *LastKnown
}

// New returns an assembler. With serveDefaults false a request with no text
// anywhere fails with content.ErrUnavailable instead of showing the built-in
// poem.
func New(serveDefaults bool) *Assembler {
	return &Assembler{
		defaults:      content.Defaults(),
		serveDefaults: serveDefaults,
		last:          &LastKnown{},
	}
}

// LastKnown exposes the holder so callers can seed or inspect it.
func (a *Assembler) LastKnown() *LastKnown { return a.last }

// Assemble picks text and image independently: resolved record, then last
// known good, then defaults. Poem and poet always travel together. A good
// record without an image keeps the previous image as last known.
func (a *Assembler) Assemble(res coordinator.Resolution) (content.Record, error) {
	rec := res.Record
	last, haveLast := a.last.Load()
	if (res.Outcome == coordinator.Hit || res.Outcome == coordinator.Published) && rec.HasText() {
		good := rec
		if !good.HasImage() && haveLast && last.HasImage() {
			good.Image = last.Image
		}
		a.last.Store(good)
	}

	out := content.Record{}

	switch {
	case rec.HasText():
		out.Poem = rec.Poem
	case haveLast && last.HasText():
		out.Poem = last.Poem
	case a.serveDefaults:
		out.Poem = a.defaults.Poem
	default:
		return content.Record{}, content.ErrUnavailable
	}

	switch {
	case rec.HasImage():
		out.Image = copyImage(rec.Image)
	case haveLast && last.HasImage():
		out.Image = copyImage(last.Image)
	case a.serveDefaults:
		out.Image = content.DefaultImage()
	}
	return out, nil
}

func copyImage(img *content.Image) *content.Image {
	c := *img
	return &c
}
