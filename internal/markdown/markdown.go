// Package markdown renders chat text for the reply panes. Output is glamour's
// terminal rendering translated into tview colour tags.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/rivo/tview"
)

var ansiSequence = regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]")

type Renderer struct {
	mu   sync.Mutex
	term *glamour.TermRenderer
}

func NewRenderer(style string, wrap int) (*Renderer, error) {
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{term: term}, nil
}

// Render converts Markdown into text ready for a TextView with dynamic colours.
func (r *Renderer) Render(text string) (string, error) {
	r.mu.Lock()
	out, err := r.term.Render(text)
	r.mu.Unlock()
	if err != nil {
		return "", err
	}
	return tview.TranslateANSI(escapeTags(out)), nil
}

// escapeTags escapes anything between escape sequences that tview would
// otherwise read as a colour or region tag.
func escapeTags(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range ansiSequence.FindAllStringIndex(s, -1) {
		b.WriteString(tview.Escape(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(tview.Escape(s[last:]))
	return b.String()
}
