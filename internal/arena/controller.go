// Package arena drives the A/B comparison form: it sends the participant's
// message, shows both replies side by side, gates the vote buttons on the
// declared proficiency, registers the vote and resets the conversation.
//
// The Controller never touches widgets directly. Everything visible goes
// through a View so the same flow runs in the terminal UI and in tests.
package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bz888/arena/internal/api"
	"github.com/bz888/arena/internal/logger"
	"github.com/google/uuid"
)

const DefaultResetDelay = 2 * time.Second

var (
	ErrProficiencyRequired = errors.New("proficiency level is required to vote")
	ErrVoteFailed          = errors.New("vote was not registered")
)

type EntryKind int

const (
	UserEntry EntryKind = iota
	ModelEntry
)

// Entry is one rendered block appended to a reply pane.
type Entry struct {
	Kind  EntryKind
	Label string
	Body  string
}

type FeedbackKind int

const (
	FeedbackSuccess FeedbackKind = iota
	FeedbackError
)

type Feedback struct {
	Kind FeedbackKind
	Text string
}

// View is the visible state of the comparison page. Implementations must be
// safe to call from any goroutine.
type View interface {
	Message() string
	Proficiency() string
	Name() string
	Email() string

	ClearMessage()
	Append(pane Pane, entry Entry)
	ClearPanes()
	SetVotingVisible(visible bool)
	SetVoteEnabled(enabled bool)
	SetProficiencyWarning(text string, visible bool)
	ShowFeedback(feedback Feedback)
	HideFeedback()
}

type Backend interface {
	OpenSession(ctx context.Context) error
	SendMessage(ctx context.Context, message string) (*api.Replies, error)
	Evaluate(ctx context.Context, vote api.Vote) (*api.EvaluateResponse, error)
	Reset(ctx context.Context) (*api.ResetResponse, error)
}

type Renderer interface {
	Render(markdown string) (string, error)
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingVote
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingVote:
		return "awaiting vote"
	default:
		return "unknown"
	}
}

// Timer is the handle of a scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

type Option func(*Controller)

func WithResetDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.resetDelay = d
	}
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.schedule = s
	}
}

type Controller struct {
	view     View
	backend  Backend
	renderer Renderer

	resetDelay time.Duration
	schedule   Scheduler

	mu             sync.Mutex
	phase          Phase
	conversationID string
	pendingReset   Timer

	localLogger *logger.Logger
}

func NewController(view View, backend Backend, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		view:           view,
		backend:        backend,
		renderer:       renderer,
		resetDelay:     DefaultResetDelay,
		schedule:       afterFunc,
		conversationID: uuid.NewString(),
		localLogger:    logger.NewLogger("arena"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Open starts the backend session and puts the page in its initial state:
// voting section and feedback hidden.
func (c *Controller) Open(ctx context.Context) error {
	if err := c.backend.OpenSession(ctx); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	c.view.SetVotingVisible(false)
	c.view.HideFeedback()
	c.localLogger.Info("Session opened, conversation", c.ConversationID())
	return nil
}

// SubmitMessage echoes the message to both panes, sends it and appends both
// replies. On failure the echo stays, the input keeps its text and the
// voting section is left as it was.
func (c *Controller) SubmitMessage(ctx context.Context) error {
	message := c.view.Message()

	echo := Entry{Kind: UserEntry, Label: UserLabel, Body: c.render(message)}
	c.view.Append(PaneA, echo)
	c.view.Append(PaneB, echo)

	replies, err := c.backend.SendMessage(ctx, message)
	if err != nil {
		c.localLogger.Error("Message exchange failed:", err)
		return fmt.Errorf("send message: %w", err)
	}

	c.view.Append(PaneA, Entry{Kind: ModelEntry, Label: ModelALabel, Body: c.render(replies.A)})
	c.view.Append(PaneB, Entry{Kind: ModelEntry, Label: ModelBLabel, Body: c.render(replies.B)})
	c.view.ClearMessage()

	c.view.SetVotingVisible(true)
	c.setPhase(PhaseAwaitingVote)
	c.RefreshVotingGate()
	return nil
}

// RefreshVotingGate enables the vote buttons iff a proficiency level is
// selected and reports whether they are enabled.
func (c *Controller) RefreshVotingGate() bool {
	if c.view.Proficiency() == "" {
		c.view.SetVoteEnabled(false)
		c.view.SetProficiencyWarning(ProficiencyWarning, true)
		return false
	}
	c.view.SetVoteEnabled(true)
	c.view.SetProficiencyWarning("", false)
	return true
}

// SubmitVote registers a vote for winner. Without a proficiency level nothing
// is sent. After a registered vote the conversation is reset once the reset
// delay has elapsed.
func (c *Controller) SubmitVote(ctx context.Context, winner Model) error {
	proficiency := c.view.Proficiency()
	if proficiency == "" {
		c.view.ShowFeedback(Feedback{Kind: FeedbackError, Text: ProficiencyRequired})
		return ErrProficiencyRequired
	}

	vote := api.Vote{
		Winner:      string(winner),
		Name:        strings.TrimSpace(c.view.Name()),
		Email:       strings.TrimSpace(c.view.Email()),
		Proficiency: proficiency,
	}

	if _, err := c.backend.Evaluate(ctx, vote); err != nil {
		c.localLogger.Error("Vote failed for conversation", c.ConversationID(), err)
		c.view.ShowFeedback(Feedback{Kind: FeedbackError, Text: VoteRegistrationFail})
		return fmt.Errorf("%w: %w", ErrVoteFailed, err)
	}

	c.localLogger.Info("Vote registered for", vote.Winner, "proficiency", vote.Proficiency)
	c.view.ShowFeedback(Feedback{Kind: FeedbackSuccess, Text: VoteRegistered})
	c.scheduleReset()
	return nil
}

func (c *Controller) scheduleReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingReset = c.schedule(c.resetDelay, func() {
		if err := c.ResetConversation(context.Background()); err != nil {
			c.localLogger.Warn("Scheduled reset failed:", err)
		}
	})
}

// ResetConversation asks the backend for a new conversation and, only when it
// answers, clears the input, both panes, the voting section and the feedback.
func (c *Controller) ResetConversation(ctx context.Context) error {
	if _, err := c.backend.Reset(ctx); err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}

	c.view.ClearMessage()
	c.view.ClearPanes()
	c.view.SetVotingVisible(false)
	c.view.HideFeedback()

	c.mu.Lock()
	previous := c.conversationID
	c.conversationID = uuid.NewString()
	c.pendingReset = nil
	c.mu.Unlock()

	c.setPhase(PhaseIdle)
	c.localLogger.Info("Conversation", previous, "reset, now", c.ConversationID())
	return nil
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// ConversationID is a client side id used to correlate log lines of one
// conversation. The backend keeps its own.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Close cancels a scheduled reset, if any.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingReset != nil {
		c.pendingReset.Stop()
		c.pendingReset = nil
	}
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	changed := c.phase != p
	c.phase = p
	c.mu.Unlock()

	if changed {
		c.localLogger.Info("Phase:", p)
	}
}

func (c *Controller) render(text string) string {
	out, err := c.renderer.Render(text)
	if err != nil {
		c.localLogger.Warn("Markdown rendering failed, showing raw text:", err)
		return text
	}
	return out
}
