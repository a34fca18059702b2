package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bz888/arena/internal/arena"
	"github.com/bz888/arena/internal/config"
	"github.com/bz888/arena/internal/logger"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	inputHeight   = 8
	profileHeight = 3
	votingHeight  = 7
	voteFormRows  = 3
)

var app *tview.Application

var (
	debugConsole  *tview.TextView
	paneA         *tview.TextView
	paneB         *tview.TextView
	textArea      *tview.TextArea
	profileForm   *tview.Form
	voteForm      *tview.Form
	warningView   *tview.TextView
	feedbackView  *tview.TextView
	votingSection *tview.Flex
	subFlex       *tview.Flex
	mainFlex      *tview.Flex
	localLogger   *logger.Logger

	controller *arena.Controller
	runCtx     = context.Background()
	debugShown bool
)

func Init() {
	app = tview.NewApplication()
	app.EnablePaste(true)
	app.EnableMouse(true)

	debugConsole = initDebugConsole()

	paneA = initReplyPane("Chat A")
	paneB = initReplyPane("Chat B")
	textArea = initChatInput()
	profileForm = initProfileForm()
	votingSection = initVotingSection()
}

func initReplyPane(title string) *tview.TextView {
	pane := tview.NewTextView().
		SetChangedFunc(func() {
			app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	pane.SetTitle(title).SetBorder(true)
	pane.SetScrollable(true)
	pane.ScrollToEnd()
	return pane
}

func initChatInput() *tview.TextArea {
	textArea := tview.NewTextArea()
	textArea.SetTitle("Mensagem").SetBorder(true)
	textArea.SetChangedFunc(func() {
		screen.setMessage(textArea.GetText())
	})
	return textArea
}

func initProfileForm() *tview.Form {
	options := append([]string{arena.ProficiencyPlaceholder}, arena.ProficiencyLevels...)

	form := tview.NewForm().
		SetHorizontal(true).
		AddDropDown("Proficiência", options, 0, func(option string, index int) {
			screen.setProficiency(proficiencyValue(option, index))
			if controller != nil {
				go controller.RefreshVotingGate()
			}
		}).
		AddInputField("Nome", "", 30, nil, func(text string) {
			screen.setName(text)
		}).
		AddInputField("Email", "", 30, nil, func(text string) {
			screen.setEmail(text)
		})
	form.SetTitle("Participante").SetBorder(true)
	form.SetBorderPadding(0, 0, 1, 1)
	return form
}

// proficiencyValue maps the drop-down selection to the submitted level; the
// placeholder means no level.
func proficiencyValue(option string, index int) string {
	if index <= 0 {
		return ""
	}
	return option
}

func initVotingSection() *tview.Flex {
	warningView = tview.NewTextView().SetDynamicColors(true)
	feedbackView = tview.NewTextView().SetDynamicColors(true)

	voteForm = tview.NewForm().
		AddButton(string(arena.ModelA), func() { vote(arena.ModelA) }).
		AddButton(string(arena.ModelB), func() { vote(arena.ModelB) })
	voteForm.SetBorderPadding(0, 0, 1, 1)

	section := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(warningView, 0, 0, false).
		AddItem(voteForm, voteFormRows, 0, true).
		AddItem(feedbackView, 0, 0, false)
	section.SetTitle("Qual resposta foi melhor?").SetBorder(true)
	return section
}

func initDebugConsole() *tview.TextView {
	console := tview.NewTextView().
		SetChangedFunc(func() {
			app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

// Run lays out the screen and blocks until the application stops.
func Run(ctx context.Context, c *arena.Controller) error {
	controller = c
	runCtx = ctx
	localLogger = logger.NewLogger("views")

	panes := tview.NewFlex().
		AddItem(paneA, 0, 1, false).
		AddItem(paneB, 0, 1, false)

	subFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(panes, 0, 1, false).
		AddItem(profileForm, profileHeight, 0, false).
		AddItem(votingSection, 0, 0, false).
		AddItem(textArea, inputHeight, 0, true)
	mainFlex = tview.NewFlex().
		AddItem(subFlex, 0, 2, true)

	if config.Dev {
		mainFlex.AddItem(debugConsole, 0, 1, false)
		debugShown = true
	}

	setInputCapture()

	return app.SetRoot(mainFlex, true).SetFocus(textArea).Run()
}

func setInputCapture() {
	paneA.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyEsc:
			app.SetFocus(textArea)
			return nil
		case tcell.KeyTab:
			app.SetFocus(paneB)
			return nil
		}
		return event
	})

	paneB.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyEsc, tcell.KeyTab:
			app.SetFocus(textArea)
			return nil
		}
		return event
	})

	profileForm.SetFinishedFunc(func(key tcell.Key) {
		if screen.isVotingVisible() {
			app.SetFocus(voteForm)
			return
		}
		app.SetFocus(textArea)
	})

	voteForm.SetFinishedFunc(func(key tcell.Key) {
		app.SetFocus(textArea)
	})

	textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyESC:
			app.SetFocus(paneA)
			return nil
		case tcell.KeyTab:
			app.SetFocus(profileForm)
			return nil
		case tcell.KeyEnter:
			content := textArea.GetText()
			if strings.TrimSpace(content) == "" {
				return nil
			}

			// todo refactor into a const object of all commands and followed by the running function
			switch strings.TrimSpace(content) {
			case "/help":
				textArea.SetText("", true)
				listHelp()
				return nil
			case "/bye", "/quit", "/exit":
				quitApp()
				return nil
			case "/debug":
				textArea.SetText("", true)
				toggleDebugConsole()
				return nil
			case "/reset":
				textArea.SetText("", true)
				go resetConversation()
				return nil
			}

			screen.setMessage(content)
			textArea.SetDisabled(true)
			go func() {
				if err := controller.SubmitMessage(runCtx); err != nil {
					localLogger.Error("Message not delivered:", err)
				}
				app.QueueUpdateDraw(func() {
					textArea.SetDisabled(false)
				})
			}()
			return nil
		}
		return event
	})
}

func vote(winner arena.Model) {
	if !screen.isVoteEnabled() {
		return
	}
	go func() {
		err := controller.SubmitVote(runCtx, winner)
		if err != nil && !errors.Is(err, arena.ErrProficiencyRequired) {
			localLogger.Error("Vote for", winner, "failed:", err)
		}
	}()
}

func resetConversation() {
	if err := controller.ResetConversation(runCtx); err != nil {
		localLogger.Warn("Reset ignored:", err)
	}
}

func toggleDebugConsole() {
	if debugShown {
		mainFlex.RemoveItem(debugConsole)
		fmt.Fprintf(paneA, "\nDebug console disabled\n")
	} else {
		mainFlex.AddItem(debugConsole, 0, 1, false)
		fmt.Fprintf(paneA, "\nDebug console enabled\n")
	}
	debugShown = !debugShown
}

func quitApp() {
	localLogger.Info("Shutting down gracefully.")
	app.Stop()
}

func listHelp() {
	fmt.Fprintf(paneA, "[green::]Comandos:[-]\n")
	fmt.Fprintf(paneA, "- /help: Mostra esta ajuda\n")
	fmt.Fprintf(paneA, "- /bye: Sai do aplicativo\n")
	fmt.Fprintf(paneA, "- /debug: Mostra ou esconde o console de debug\n")
	fmt.Fprintf(paneA, "- /reset: Reinicia a conversa\n")
	fmt.Fprintf(paneA, "- Tab: alterna entre mensagem, participante e avaliação\n\n")
}

func GetDebugConsole() (*tview.TextView, error) {
	if debugConsole == nil {
		return nil, errors.New("debug console not initialized")
	}
	return debugConsole, nil
}
