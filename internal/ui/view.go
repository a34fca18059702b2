package ui

import (
	"fmt"
	"sync"

	"github.com/bz888/arena/internal/arena"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// view mirrors the form fields so the controller can read them from any
// goroutine; widgets are only touched on the event loop.
type view struct {
	mu            sync.Mutex
	message       string
	proficiency   string
	name          string
	email         string
	voteEnabled   bool
	votingVisible bool
}

var screen = &view{}

// View returns the arena.View backed by the terminal screen.
func View() arena.View {
	return screen
}

func (v *view) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *view) Proficiency() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.proficiency
}

func (v *view) Name() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name
}

func (v *view) Email() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.email
}

func (v *view) setMessage(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = text
}

func (v *view) setProficiency(level string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.proficiency = level
}

func (v *view) setName(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.name = text
}

func (v *view) setEmail(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.email = text
}

func (v *view) isVoteEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.voteEnabled
}

func (v *view) isVotingVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.votingVisible
}

func (v *view) ClearMessage() {
	v.setMessage("")
	app.QueueUpdateDraw(func() {
		textArea.SetText("", true)
	})
}

func (v *view) Append(pane arena.Pane, entry arena.Entry) {
	target := paneA
	if pane == arena.PaneB {
		target = paneB
	}
	text := formatEntry(entry)
	app.QueueUpdateDraw(func() {
		fmt.Fprint(target, text)
		target.ScrollToEnd()
	})
}

func (v *view) ClearPanes() {
	app.QueueUpdateDraw(func() {
		paneA.Clear()
		paneB.Clear()
	})
}

func (v *view) SetVotingVisible(visible bool) {
	v.mu.Lock()
	v.votingVisible = visible
	v.mu.Unlock()

	height := 0
	if visible {
		height = votingHeight
	}
	app.QueueUpdateDraw(func() {
		subFlex.ResizeItem(votingSection, height, 0)
	})
}

func (v *view) SetVoteEnabled(enabled bool) {
	v.mu.Lock()
	v.voteEnabled = enabled
	v.mu.Unlock()

	background, text := buttonColors(enabled)
	app.QueueUpdateDraw(func() {
		voteForm.SetButtonBackgroundColor(background)
		voteForm.SetButtonTextColor(text)
	})
}

func (v *view) SetProficiencyWarning(text string, visible bool) {
	rows := 0
	if visible {
		rows = 1
	}
	app.QueueUpdateDraw(func() {
		warningView.SetText(fmt.Sprintf("[yellow]%s[-]", tview.Escape(text)))
		votingSection.ResizeItem(warningView, rows, 0)
	})
}

func (v *view) ShowFeedback(feedback arena.Feedback) {
	text := formatFeedback(feedback)
	app.QueueUpdateDraw(func() {
		feedbackView.SetText(text)
		votingSection.ResizeItem(feedbackView, 1, 0)
	})
}

func (v *view) HideFeedback() {
	app.QueueUpdateDraw(func() {
		feedbackView.Clear()
		votingSection.ResizeItem(feedbackView, 0, 0)
	})
}

func formatEntry(entry arena.Entry) string {
	color := "green"
	if entry.Kind == arena.UserEntry {
		color = "red"
	}
	return fmt.Sprintf("[%s::b]%s:[-::-]\n%s\n\n", color, entry.Label, entry.Body)
}

func formatFeedback(feedback arena.Feedback) string {
	color := "green"
	if feedback.Kind == arena.FeedbackError {
		color = "red"
	}
	return fmt.Sprintf("[%s]%s[-]", color, tview.Escape(feedback.Text))
}

func buttonColors(enabled bool) (background, text tcell.Color) {
	if enabled {
		return tview.Styles.ContrastBackgroundColor, tview.Styles.PrimaryTextColor
	}
	return tcell.ColorDarkGray, tcell.ColorGray
}
