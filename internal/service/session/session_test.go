package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/interviewer/internal/model/interview"
	"github.com/zhouzirui/interviewer/internal/service/ai"
)

type mockCompleter struct{ mock.Mock }

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (ai.Completion, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0).(ai.Completion), args.Error(1)
}

type failingTurnLogger struct{ calls int }

func (f *failingTurnLogger) AppendTurn(context.Context, interview.TurnLogEntry) error {
	f.calls++
	return fmt.Errorf("%w: connection refused", interview.ErrPersistence)
}

type recordingPresenter struct {
	events []string
}

func (p *recordingPresenter) SummaryLoaded(id string)  { p.events = append(p.events, "loaded:"+id) }
func (p *recordingPresenter) Question(text string)     { p.events = append(p.events, "question:"+text) }
func (p *recordingPresenter) Feedback(text string)     { p.events = append(p.events, "feedback:"+text) }
func (p *recordingPresenter) Usage(prompt, completion int) {
	p.events = append(p.events, fmt.Sprintf("usage:%d/%d", prompt, completion))
}
func (p *recordingPresenter) AnswerPrompt() { p.events = append(p.events, "prompt") }
func (p *recordingPresenter) Ended()        { p.events = append(p.events, "ended") }

func isOpeningPrompt(summary string) any {
	return mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Ask ONE specific technical question") && strings.Contains(prompt, summary)
	})
}

func isFollowupPrompt(summary, answer string) any {
	return mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "CANDIDATE ANSWER") &&
			strings.Contains(prompt, summary) &&
			strings.Contains(prompt, `"`+answer+`"`)
	})
}

var lecture = interview.SummaryRecord{
	ID:        "lec1.pdf",
	Text:      "Linux process scheduling",
	CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
}

func newTestSession(t *testing.T, store *interview.MemoryStore) (*Session, *mockCompleter, *recordingPresenter) {
	t.Helper()
	completer := &mockCompleter{}
	presenter := &recordingPresenter{}
	s := New(Deps{
		Summaries: store,
		Turns:     store,
		Completer: completer,
		Presenter: presenter,
	})
	return s, completer, presenter
}

func TestStartAsksOpeningQuestion(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, presenter := newTestSession(t, store)
	completer.On("Complete", mock.Anything, isOpeningPrompt("Linux process scheduling")).
		Return(ai.Completion{Content: "What is a time slice?", PromptTokens: 40, CompletionTokens: 7}, nil).Once()

	require.Equal(t, StateInit, s.State())
	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, StateAwaitingAnswer, s.State())
	assert.Equal(t, "What is a time slice?", s.CurrentQuestion())
	assert.Equal(t, lecture, s.Summary())
	assert.Equal(t, []string{"loaded:lec1.pdf", "question:What is a time slice?", "usage:40/7"}, presenter.events)
	completer.AssertExpectations(t)
}

func TestStartWithoutSummaryTerminates(t *testing.T) {
	store := interview.NewMemoryStore()
	s, completer, _ := newTestSession(t, store)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, interview.ErrNotFound)
	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, ReasonError, s.Reason())
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestStartServiceFailureTerminates(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, _ := newTestSession(t, store)
	completer.On("Complete", mock.Anything, mock.Anything).
		Return(ai.Completion{}, fmt.Errorf("%w: quota exceeded", interview.ErrService)).Once()

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, interview.ErrService)
	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, ReasonError, s.Reason())
	assert.ErrorIs(t, s.Err(), interview.ErrService)
}

func TestExitCommandsTerminateWithoutEvaluation(t *testing.T) {
	for _, input := range []string{" exit ", "QUIT", "Exit\n", "\tquit"} {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			store := interview.NewMemoryStore(lecture)
			s, completer, presenter := newTestSession(t, store)
			completer.On("Complete", mock.Anything, mock.Anything).
				Return(ai.Completion{Content: "What is a time slice?"}, nil).Once()
			require.NoError(t, s.Start(context.Background()))

			require.NoError(t, s.Answer(context.Background(), input))

			assert.Equal(t, StateTerminated, s.State())
			assert.Equal(t, ReasonNormal, s.Reason())
			assert.NoError(t, s.Err())
			assert.Empty(t, store.Turns())
			completer.AssertNumberOfCalls(t, "Complete", 1)
			assert.Equal(t, "ended", presenter.events[len(presenter.events)-1])
		})
	}
}

func TestAnswerEvaluatesAndLogsTurn(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, presenter := newTestSession(t, store)
	completer.On("Complete", mock.Anything, isOpeningPrompt("Linux process scheduling")).
		Return(ai.Completion{Content: "Q1"}, nil).Once()
	completer.On("Complete", mock.Anything, isFollowupPrompt("Linux process scheduling", "hello there")).
		Return(ai.Completion{Content: "F1", PromptTokens: 90, CompletionTokens: 30}, nil).Once()
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Answer(context.Background(), "  hello there \n"))

	assert.Equal(t, StateAwaitingAnswer, s.State())
	assert.Equal(t, "F1", s.CurrentQuestion())
	assert.Equal(t, 1, s.Turns())

	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, s.ID(), turns[0].SessionID)
	assert.Equal(t, "lec1.pdf", turns[0].SourceID)
	assert.Equal(t, "Q1", turns[0].Question)
	assert.Equal(t, "hello there", turns[0].Answer)
	assert.Equal(t, "F1", turns[0].Followup)
	assert.False(t, turns[0].LoggedAt.IsZero())

	assert.Contains(t, presenter.events, "feedback:F1")
	assert.Contains(t, presenter.events, "usage:90/30")
	completer.AssertExpectations(t)
}

func TestEmptyAnswerIsEvaluated(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, _ := newTestSession(t, store)
	completer.On("Complete", mock.Anything, mock.Anything).Return(ai.Completion{Content: "Q"}, nil)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Answer(context.Background(), "   "))

	completer.AssertNumberOfCalls(t, "Complete", 2)
	require.Len(t, store.Turns(), 1)
	assert.Equal(t, "", store.Turns()[0].Answer)
}

func TestFollowupReplacesCurrentQuestion(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, _ := newTestSession(t, store)
	completer.On("Complete", mock.Anything, isOpeningPrompt("Linux process scheduling")).
		Return(ai.Completion{Content: "Q1"}, nil).Once()
	completer.On("Complete", mock.Anything, isFollowupPrompt("Linux process scheduling", "a1")).
		Return(ai.Completion{Content: "F1"}, nil).Once()
	completer.On("Complete", mock.Anything, isFollowupPrompt("Linux process scheduling", "a2")).
		Return(ai.Completion{Content: "F2"}, nil).Once()
	completer.On("Complete", mock.Anything, isFollowupPrompt("Linux process scheduling", "a3")).
		Return(ai.Completion{Content: "F3"}, nil).Once()
	require.NoError(t, s.Start(context.Background()))

	for _, answer := range []string{"a1", "a2", "a3"} {
		require.NoError(t, s.Answer(context.Background(), answer))
	}

	turns := store.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, []string{"Q1", "F1", "F2"}, []string{turns[0].Question, turns[1].Question, turns[2].Question})
	assert.Equal(t, []string{"F1", "F2", "F3"}, []string{turns[0].Followup, turns[1].Followup, turns[2].Followup})
	assert.Equal(t, "F3", s.CurrentQuestion())
	completer.AssertExpectations(t)
}

func TestLoggedAtNeverDecreases(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return(ai.Completion{Content: "Q"}, nil)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Minute), base.Add(time.Minute)}
	s := New(Deps{
		Summaries: store,
		Turns:     store,
		Completer: completer,
		Now: func() time.Time {
			now := clock[0]
			clock = clock[1:]
			return now
		},
	})
	require.NoError(t, s.Start(context.Background()))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Answer(context.Background(), "answer"))
	}

	turns := store.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, base, turns[0].LoggedAt)
	assert.Equal(t, base, turns[1].LoggedAt)
	assert.Equal(t, base.Add(time.Minute), turns[2].LoggedAt)
}

func TestAnswerServiceFailureTerminates(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, _ := newTestSession(t, store)
	completer.On("Complete", mock.Anything, isOpeningPrompt("Linux process scheduling")).
		Return(ai.Completion{Content: "Q1"}, nil).Once()
	completer.On("Complete", mock.Anything, mock.Anything).
		Return(ai.Completion{}, fmt.Errorf("%w: timeout", interview.ErrService)).Once()
	require.NoError(t, s.Start(context.Background()))

	err := s.Answer(context.Background(), "round robin")
	assert.ErrorIs(t, err, interview.ErrService)
	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, ReasonError, s.Reason())
	assert.Empty(t, store.Turns())

	assert.ErrorIs(t, s.Answer(context.Background(), "again"), ErrTerminated)
}

func TestPersistenceFailureTerminatesAfterShowingFeedback(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	logger := &failingTurnLogger{}
	completer := &mockCompleter{}
	presenter := &recordingPresenter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return(ai.Completion{Content: "F"}, nil)
	s := New(Deps{Summaries: store, Turns: logger, Completer: completer, Presenter: presenter})
	require.NoError(t, s.Start(context.Background()))

	err := s.Answer(context.Background(), "round robin")
	assert.ErrorIs(t, err, interview.ErrPersistence)
	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, ReasonError, s.Reason())
	assert.Equal(t, 1, logger.calls)
	assert.Contains(t, presenter.events, "feedback:F")
}

func TestAnswerBeforeStartIsRejected(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, _ := newTestSession(t, store)

	err := s.Answer(context.Background(), "round robin")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTerminated))
	assert.Equal(t, StateInit, s.State())
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestStartTwiceIsRejected(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, _ := newTestSession(t, store)
	completer.On("Complete", mock.Anything, mock.Anything).Return(ai.Completion{Content: "Q"}, nil).Once()
	require.NoError(t, s.Start(context.Background()))

	assert.Error(t, s.Start(context.Background()))
	assert.Equal(t, StateAwaitingAnswer, s.State())
}

func TestRunEndToEnd(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, presenter := newTestSession(t, store)
	completer.On("Complete", mock.Anything, isOpeningPrompt("Linux process scheduling")).
		Return(ai.Completion{Content: "How does the kernel decide which process runs next?"}, nil).Once()
	completer.On("Complete", mock.Anything, isFollowupPrompt("Linux process scheduling", "round robin")).
		Return(ai.Completion{Content: "Partly right. What is the role of the time quantum?"}, nil).Once()

	err := s.Run(context.Background(), strings.NewReader("round robin\nexit\n"))
	require.NoError(t, err)

	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, ReasonNormal, s.Reason())

	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "lec1.pdf", turns[0].SourceID)
	assert.Equal(t, "How does the kernel decide which process runs next?", turns[0].Question)
	assert.Equal(t, "round robin", turns[0].Answer)
	assert.Equal(t, "Partly right. What is the role of the time quantum?", turns[0].Followup)

	assert.Equal(t, "ended", presenter.events[len(presenter.events)-1])
	completer.AssertExpectations(t)
}

func TestRunEndOfInputEndsNormally(t *testing.T) {
	store := interview.NewMemoryStore(lecture)
	s, completer, _ := newTestSession(t, store)
	completer.On("Complete", mock.Anything, mock.Anything).Return(ai.Completion{Content: "Q"}, nil)

	require.NoError(t, s.Run(context.Background(), strings.NewReader("first answer\n")))

	assert.Equal(t, ReasonNormal, s.Reason())
	assert.Len(t, store.Turns(), 1)
}

func TestRunPropagatesStartupFailure(t *testing.T) {
	s, _, _ := newTestSession(t, interview.NewMemoryStore())

	err := s.Run(context.Background(), strings.NewReader("round robin\n"))
	assert.ErrorIs(t, err, interview.ErrNotFound)
	assert.Equal(t, ReasonError, s.Reason())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "awaiting_answer", StateAwaitingAnswer.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "normal", ReasonNormal.String())
	assert.Equal(t, "error", ReasonError.String())
}
