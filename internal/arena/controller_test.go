package arena

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bz888/arena/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	mu sync.Mutex

	message     string
	proficiency string
	name        string
	email       string

	panes          map[Pane][]Entry
	votingVisible  bool
	voteEnabled    bool
	warning        string
	warningVisible bool
	feedback       *Feedback
}

func newFakeView() *fakeView {
	return &fakeView{panes: map[Pane][]Entry{}}
}

func (v *fakeView) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *fakeView) Proficiency() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.proficiency
}

func (v *fakeView) Name() string  { return v.name }
func (v *fakeView) Email() string { return v.email }

func (v *fakeView) ClearMessage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = ""
}

func (v *fakeView) Append(pane Pane, entry Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panes[pane] = append(v.panes[pane], entry)
}

func (v *fakeView) ClearPanes() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panes = map[Pane][]Entry{}
}

func (v *fakeView) SetVotingVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.votingVisible = visible
}

func (v *fakeView) SetVoteEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.voteEnabled = enabled
}

func (v *fakeView) SetProficiencyWarning(text string, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.warning = text
	v.warningVisible = visible
}

func (v *fakeView) ShowFeedback(feedback Feedback) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feedback = &feedback
}

func (v *fakeView) HideFeedback() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feedback = nil
}

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) OpenSession(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *MockBackend) SendMessage(ctx context.Context, message string) (*api.Replies, error) {
	args := m.Called(message)
	replies, _ := args.Get(0).(*api.Replies)
	return replies, args.Error(1)
}

func (m *MockBackend) Evaluate(ctx context.Context, vote api.Vote) (*api.EvaluateResponse, error) {
	args := m.Called(vote)
	resp, _ := args.Get(0).(*api.EvaluateResponse)
	return resp, args.Error(1)
}

func (m *MockBackend) Reset(ctx context.Context) (*api.ResetResponse, error) {
	args := m.Called()
	resp, _ := args.Get(0).(*api.ResetResponse)
	return resp, args.Error(1)
}

// tagRenderer wraps the text so tests can tell rendered from raw text.
type tagRenderer struct{}

func (tagRenderer) Render(markdown string) (string, error) {
	return "<md>" + markdown + "</md>", nil
}

type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) {
	return "", errors.New("renderer broke")
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) schedule(d time.Duration, f func()) Timer {
	timer := &manualTimer{delay: d, fn: f}
	s.timers = append(s.timers, timer)
	return timer
}

func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, s.timers, "no reset scheduled")
	timer := s.timers[0]
	s.timers = s.timers[1:]
	if !timer.stopped {
		timer.fn()
	}
}

func newTestController(view *fakeView, backend *MockBackend) (*Controller, *manualScheduler) {
	scheduler := &manualScheduler{}
	c := NewController(view, backend, tagRenderer{}, WithScheduler(scheduler.schedule))
	return c, scheduler
}

var ctx = context.Background()

func TestOpenHidesVotingSection(t *testing.T) {
	view := newFakeView()
	view.votingVisible = true
	view.feedback = &Feedback{Text: "old"}
	backend := new(MockBackend)
	backend.On("OpenSession").Return(nil)

	c, _ := newTestController(view, backend)
	require.NoError(t, c.Open(ctx))

	assert.False(t, view.votingVisible)
	assert.Nil(t, view.feedback)
	assert.Equal(t, PhaseIdle, c.Phase())
	backend.AssertExpectations(t)
}

func TestOpenFails(t *testing.T) {
	view := newFakeView()
	backend := new(MockBackend)
	backend.On("OpenSession").Return(errors.New("connection refused"))

	c, _ := newTestController(view, backend)
	err := c.Open(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSubmitMessage(t *testing.T) {
	view := newFakeView()
	view.message = "Explique *recursão*"
	view.proficiency = "Avançado"
	backend := new(MockBackend)
	backend.On("SendMessage", "Explique *recursão*").
		Return(&api.Replies{A: "Resposta **A**", B: "Resposta **B**"}, nil)

	c, _ := newTestController(view, backend)
	require.NoError(t, c.SubmitMessage(ctx))

	assert.Equal(t, []Entry{
		{Kind: UserEntry, Label: "Você", Body: "<md>Explique *recursão*</md>"},
		{Kind: ModelEntry, Label: "Modelo A", Body: "<md>Resposta **A**</md>"},
	}, view.panes[PaneA])
	assert.Equal(t, []Entry{
		{Kind: UserEntry, Label: "Você", Body: "<md>Explique *recursão*</md>"},
		{Kind: ModelEntry, Label: "Modelo B", Body: "<md>Resposta **B**</md>"},
	}, view.panes[PaneB])
	assert.Empty(t, view.message)
	assert.True(t, view.votingVisible)
	assert.True(t, view.voteEnabled)
	assert.False(t, view.warningVisible)
	assert.Equal(t, PhaseAwaitingVote, c.Phase())
	backend.AssertExpectations(t)
}

func TestSubmitMessageEchoesBeforeSending(t *testing.T) {
	view := newFakeView()
	view.message = "oi"
	backend := new(MockBackend)
	backend.On("SendMessage", "oi").
		Run(func(mock.Arguments) {
			view.mu.Lock()
			defer view.mu.Unlock()
			require.Len(t, view.panes[PaneA], 1)
			require.Len(t, view.panes[PaneB], 1)
			assert.Equal(t, UserEntry, view.panes[PaneA][0].Kind)
		}).
		Return(&api.Replies{A: "a", B: "b"}, nil)

	c, _ := newTestController(view, backend)
	require.NoError(t, c.SubmitMessage(ctx))
}

func TestSubmitMessageSendsEmptyText(t *testing.T) {
	view := newFakeView()
	backend := new(MockBackend)
	backend.On("SendMessage", "").Return(&api.Replies{}, nil)

	c, _ := newTestController(view, backend)
	require.NoError(t, c.SubmitMessage(ctx))
	backend.AssertCalled(t, "SendMessage", "")
}

func TestSubmitMessageRevealsVotingWithoutProficiency(t *testing.T) {
	view := newFakeView()
	view.message = "oi"
	backend := new(MockBackend)
	backend.On("SendMessage", "oi").Return(&api.Replies{A: "a", B: "b"}, nil)

	c, _ := newTestController(view, backend)
	require.NoError(t, c.SubmitMessage(ctx))

	assert.True(t, view.votingVisible)
	assert.False(t, view.voteEnabled)
	assert.True(t, view.warningVisible)
	assert.Equal(t, ProficiencyWarning, view.warning)
}

func TestSubmitMessageFailure(t *testing.T) {
	view := newFakeView()
	view.message = "oi"
	backend := new(MockBackend)
	backend.On("SendMessage", "oi").Return(nil, errors.New("connection reset"))

	c, _ := newTestController(view, backend)
	err := c.SubmitMessage(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Len(t, view.panes[PaneA], 1)
	assert.Len(t, view.panes[PaneB], 1)
	assert.Equal(t, "oi", view.message)
	assert.False(t, view.votingVisible)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestSubmitMessageRenderFallback(t *testing.T) {
	view := newFakeView()
	view.message = "**oi**"
	backend := new(MockBackend)
	backend.On("SendMessage", "**oi**").Return(&api.Replies{A: "a", B: "b"}, nil)

	c := NewController(view, backend, failingRenderer{})
	require.NoError(t, c.SubmitMessage(ctx))

	assert.Equal(t, "**oi**", view.panes[PaneA][0].Body)
	assert.Equal(t, "a", view.panes[PaneA][1].Body)
}

func TestRefreshVotingGate(t *testing.T) {
	cases := []struct {
		proficiency string
		enabled     bool
	}{
		{"", false},
		{"Iniciante", true},
		{"Básico", true},
		{"Intermediário", true},
		{"Avançado", true},
		{"Especialista", true},
		{" ", true},
	}

	for _, tc := range cases {
		t.Run(tc.proficiency, func(t *testing.T) {
			view := newFakeView()
			view.proficiency = tc.proficiency
			c, _ := newTestController(view, new(MockBackend))

			assert.Equal(t, tc.enabled, c.RefreshVotingGate())
			assert.Equal(t, tc.enabled, view.voteEnabled)
			assert.Equal(t, !tc.enabled, view.warningVisible)

			// idempotent
			assert.Equal(t, tc.enabled, c.RefreshVotingGate())
			assert.Equal(t, tc.enabled, view.voteEnabled)
		})
	}
}

func TestRefreshVotingGateFollowsSelection(t *testing.T) {
	view := newFakeView()
	c, _ := newTestController(view, new(MockBackend))

	c.RefreshVotingGate()
	assert.False(t, view.voteEnabled)
	assert.Equal(t, ProficiencyWarning, view.warning)

	view.proficiency = "Especialista"
	c.RefreshVotingGate()
	assert.True(t, view.voteEnabled)
	assert.False(t, view.warningVisible)

	view.proficiency = ""
	c.RefreshVotingGate()
	assert.False(t, view.voteEnabled)
	assert.True(t, view.warningVisible)
}

func TestSubmitVoteWithoutProficiency(t *testing.T) {
	for _, winner := range []Model{ModelA, ModelB} {
		view := newFakeView()
		backend := new(MockBackend)
		c, scheduler := newTestController(view, backend)

		err := c.SubmitVote(ctx, winner)
		assert.ErrorIs(t, err, ErrProficiencyRequired)

		require.NotNil(t, view.feedback)
		assert.Equal(t, FeedbackError, view.feedback.Kind)
		assert.Equal(t, "Você precisa selecionar seu nível de proficiência para avaliar.", view.feedback.Text)
		backend.AssertNotCalled(t, "Evaluate", mock.Anything)
		assert.Empty(t, scheduler.timers)
	}
}

func TestSubmitVoteSuccessSchedulesReset(t *testing.T) {
	view := newFakeView()
	view.message = "oi"
	view.proficiency = "Intermediário"
	view.name = "  Ana  "
	view.email = " ana@example.com "
	backend := new(MockBackend)
	backend.On("SendMessage", "oi").Return(&api.Replies{A: "a", B: "b"}, nil)
	backend.On("Evaluate", api.Vote{
		Winner:      "Chat B",
		Name:        "Ana",
		Email:       "ana@example.com",
		Proficiency: "Intermediário",
	}).Return(&api.EvaluateResponse{Status: "Avaliação registrada", Winner: "Chat B"}, nil)
	backend.On("Reset").Return(&api.ResetResponse{Status: "Conversa resetada"}, nil)

	c, scheduler := newTestController(view, backend)
	require.NoError(t, c.SubmitMessage(ctx))
	view.message = "rascunho"

	require.NoError(t, c.SubmitVote(ctx, ModelB))

	require.NotNil(t, view.feedback)
	assert.Equal(t, FeedbackSuccess, view.feedback.Kind)
	assert.Equal(t, VoteRegistered, view.feedback.Text)
	require.Len(t, scheduler.timers, 1)
	assert.Equal(t, DefaultResetDelay, scheduler.timers[0].delay)
	backend.AssertNotCalled(t, "Reset")

	scheduler.fire(t)

	assert.Empty(t, view.panes[PaneA])
	assert.Empty(t, view.panes[PaneB])
	assert.Empty(t, view.message)
	assert.False(t, view.votingVisible)
	assert.Nil(t, view.feedback)
	assert.Equal(t, PhaseIdle, c.Phase())
	backend.AssertExpectations(t)
}

func TestSubmitVoteFailure(t *testing.T) {
	view := newFakeView()
	view.proficiency = "Básico"
	view.votingVisible = true
	view.panes[PaneA] = []Entry{{Kind: ModelEntry, Label: ModelALabel, Body: "a"}}
	backend := new(MockBackend)
	netErr := &api.StatusError{StatusCode: 500, Message: "Erro ao processar a avaliação."}
	backend.On("Evaluate", mock.Anything).Return(nil, netErr)

	c, scheduler := newTestController(view, backend)
	err := c.SubmitVote(ctx, ModelA)

	assert.ErrorIs(t, err, ErrVoteFailed)
	assert.ErrorIs(t, err, netErr)
	require.NotNil(t, view.feedback)
	assert.Equal(t, FeedbackError, view.feedback.Kind)
	assert.Equal(t, VoteRegistrationFail, view.feedback.Text)
	assert.Empty(t, scheduler.timers)
	assert.True(t, view.votingVisible)
	assert.Len(t, view.panes[PaneA], 1)
	backend.AssertNotCalled(t, "Reset")
}

func TestSubmitVoteRetryAfterFailure(t *testing.T) {
	view := newFakeView()
	view.proficiency = "Avançado"
	backend := new(MockBackend)
	backend.On("Evaluate", mock.Anything).Return(nil, errors.New("timeout")).Once()
	backend.On("Evaluate", mock.Anything).Return(&api.EvaluateResponse{}, nil).Once()

	c, scheduler := newTestController(view, backend)
	assert.Error(t, c.SubmitVote(ctx, ModelA))
	assert.NoError(t, c.SubmitVote(ctx, ModelA))

	assert.Equal(t, VoteRegistered, view.feedback.Text)
	assert.Len(t, scheduler.timers, 1)
}

func TestResetFailureKeepsState(t *testing.T) {
	view := newFakeView()
	view.message = "rascunho"
	view.votingVisible = true
	view.feedback = &Feedback{Kind: FeedbackSuccess, Text: VoteRegistered}
	view.panes[PaneA] = []Entry{{Label: UserLabel, Body: "oi"}}
	backend := new(MockBackend)
	backend.On("Reset").Return(nil, errors.New("bad gateway"))

	c, _ := newTestController(view, backend)
	assert.Error(t, c.ResetConversation(ctx))

	assert.Equal(t, "rascunho", view.message)
	assert.True(t, view.votingVisible)
	assert.NotNil(t, view.feedback)
	assert.Len(t, view.panes[PaneA], 1)
}

func TestResetRotatesConversationID(t *testing.T) {
	view := newFakeView()
	backend := new(MockBackend)
	backend.On("Reset").Return(&api.ResetResponse{}, nil)

	c, _ := newTestController(view, backend)
	before := c.ConversationID()
	require.NoError(t, c.ResetConversation(ctx))
	assert.NotEqual(t, before, c.ConversationID())
}

func TestCloseCancelsScheduledReset(t *testing.T) {
	view := newFakeView()
	view.proficiency = "Iniciante"
	backend := new(MockBackend)
	backend.On("Evaluate", mock.Anything).Return(&api.EvaluateResponse{}, nil)

	c, scheduler := newTestController(view, backend)
	require.NoError(t, c.SubmitVote(ctx, ModelA))
	c.Close()

	scheduler.fire(t)
	backend.AssertNotCalled(t, "Reset")
}

func TestResetDelayOption(t *testing.T) {
	view := newFakeView()
	view.proficiency = "Iniciante"
	backend := new(MockBackend)
	backend.On("Evaluate", mock.Anything).Return(&api.EvaluateResponse{}, nil)
	backend.On("Reset").Return(&api.ResetResponse{}, nil)

	done := make(chan struct{})
	c := NewController(view, backend, tagRenderer{},
		WithResetDelay(10*time.Millisecond),
		WithScheduler(func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, func() {
				f()
				close(done)
			})
		}),
	)
	require.NoError(t, c.SubmitVote(ctx, ModelA))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reset did not run")
	}
	backend.AssertCalled(t, "Reset")
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "awaiting vote", PhaseAwaitingVote.String())
	assert.Equal(t, "A", PaneA.String())
	assert.Equal(t, "B", PaneB.String())
}
