package pagecontroller

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/fakhrymubarak/iss-finder/internal/model"
)

// Element ids of the page.
const (
	ElementDateTime     = "datetime"
	ElementYourPos      = "YourPos"
	ElementISSPos       = "ISSPos"
	ElementGoLookStatus = "goLookStatus"
	ElementFetchStatus  = "fetchStatus"
)

// Display is the part of the page the controller writes into.
type Display interface {
	SetText(id, text string)
	SetHTML(id, markup string)
}

// Geolocator yields a single position fix.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (model.Coordinates, error)
}

// StaticGeolocator always reports the same position.
type StaticGeolocator struct {
	Coords model.Coordinates
}

func (g StaticGeolocator) CurrentPosition(ctx context.Context) (model.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}
	return g.Coords, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainText drops markup tags and unescapes entities.
func PlainText(markup string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(markup, ""))
}

// TerminalDisplay prints element changes as lines on w.
type TerminalDisplay struct {
	mu       sync.Mutex
	w        io.Writer
	elements map[string]string
	hidden   map[string]bool
}

// NewTerminalDisplay writes to w. Elements listed in hidden are tracked but not printed.
func NewTerminalDisplay(w io.Writer, hidden ...string) *TerminalDisplay {
	d := &TerminalDisplay{
		w:        w,
		elements: make(map[string]string),
		hidden:   make(map[string]bool, len(hidden)),
	}
	for _, id := range hidden {
		d.hidden[id] = true
	}
	return d
}

func (d *TerminalDisplay) SetText(id, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.elements[id]; ok && prev == text {
		return
	}
	d.elements[id] = text
	if d.hidden[id] || strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintf(d.w, "%-13s %s\n", id+":", text)
}

func (d *TerminalDisplay) SetHTML(id, markup string) {
	d.SetText(id, PlainText(markup))
}

// Text returns the current content of element id.
func (d *TerminalDisplay) Text(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elements[id]
}
