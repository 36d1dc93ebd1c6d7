package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/interviewer/internal/model/interview"
	"github.com/zhouzirui/interviewer/internal/service/ai"
)

// ErrTerminated is returned for input delivered after the session ended.
var ErrTerminated = errors.New("session terminated")

// State is a step of the interview state machine.
type State int

const (
	StateInit State = iota
	StateAwaitingFirstQuestion
	StateAwaitingAnswer
	StateEvaluating
	StateLogged
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAwaitingFirstQuestion:
		return "awaiting_first_question"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateEvaluating:
		return "evaluating"
	case StateLogged:
		return "logged"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reason explains why a session reached StateTerminated.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNormal
	ReasonError
)

func (r Reason) String() string {
	switch r {
	case ReasonNormal:
		return "normal"
	case ReasonError:
		return "error"
	default:
		return "none"
	}
}

// Presenter surfaces the interview to the candidate.
type Presenter interface {
	SummaryLoaded(sourceID string)
	Question(text string)
	Feedback(text string)
	Usage(promptTokens, completionTokens int)
	AnswerPrompt()
	Ended()
}

// Deps is the context a session runs in. It is built once at startup; the
// store connections behind Summaries and Turns are shared, not owned.
type Deps struct {
	Summaries interview.SummarySource
	Turns     interview.TurnLogger
	Completer ai.Completer
	Prompts   *ai.PromptBuilder
	Presenter Presenter
	Now       func() time.Time
}

// Session runs one interview. It is strictly sequential and not safe for
// concurrent use.
type Session struct {
	id   string
	deps Deps

	state  State
	reason Reason
	err    error

	summary         interview.SummaryRecord
	currentQuestion string
	lastLoggedAt    time.Time
	turns           int
}

// New creates a session in StateInit.
func New(deps Deps) *Session {
	if deps.Prompts == nil {
		deps.Prompts = ai.NewPromptBuilder()
	}
	if deps.Presenter == nil {
		deps.Presenter = nopPresenter{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Session{
		id:    uuid.NewString(),
		deps:  deps,
		state: StateInit,
	}
}

// ID returns the session identifier written with every logged turn.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Reason returns why the session terminated, ReasonNone while it is running.
func (s *Session) Reason() Reason { return s.reason }

// Err returns the error that terminated the session, if any.
func (s *Session) Err() error { return s.err }

// CurrentQuestion returns the question awaiting an answer.
func (s *Session) CurrentQuestion() string { return s.currentQuestion }

// Summary returns the summary the session is based on.
func (s *Session) Summary() interview.SummaryRecord { return s.summary }

// Turns returns the number of logged turns.
func (s *Session) Turns() int { return s.turns }

// Start loads the latest summary and asks the opening question.
func (s *Session) Start(ctx context.Context) error {
	switch s.state {
	case StateInit:
	case StateTerminated:
		return ErrTerminated
	default:
		return fmt.Errorf("session already started (state %s)", s.state)
	}

	record, err := s.deps.Summaries.Latest(ctx)
	if err != nil {
		return s.fail(fmt.Errorf("load latest summary: %w", err))
	}
	s.summary = record
	s.state = StateAwaitingFirstQuestion
	s.deps.Presenter.SummaryLoaded(record.ID)
	log.Printf("[interview] session=%s loaded summary source=%s", s.id, record.ID)

	prompt, err := s.deps.Prompts.Opening(ctx, record.Text)
	if err != nil {
		return s.fail(err)
	}

	completion, err := s.deps.Completer.Complete(ctx, prompt)
	if err != nil {
		return s.fail(fmt.Errorf("generate opening question: %w", err))
	}

	s.currentQuestion = completion.Content
	s.state = StateAwaitingAnswer
	s.deps.Presenter.Question(completion.Content)
	s.deps.Presenter.Usage(completion.PromptTokens, completion.CompletionTokens)
	return nil
}

// Answer handles one line of candidate input. Exit commands end the session
// without evaluation; anything else is evaluated, shown and logged.
func (s *Session) Answer(ctx context.Context, raw string) error {
	switch s.state {
	case StateAwaitingAnswer:
	case StateTerminated:
		return ErrTerminated
	default:
		return fmt.Errorf("session not awaiting an answer (state %s)", s.state)
	}

	answer := strings.TrimSpace(raw)
	if isExitCommand(answer) {
		s.end()
		return nil
	}

	s.state = StateEvaluating
	prompt, err := s.deps.Prompts.Followup(ctx, s.summary.Text, answer)
	if err != nil {
		return s.fail(err)
	}

	completion, err := s.deps.Completer.Complete(ctx, prompt)
	if err != nil {
		return s.fail(fmt.Errorf("evaluate answer: %w", err))
	}

	s.deps.Presenter.Feedback(completion.Content)
	s.deps.Presenter.Usage(completion.PromptTokens, completion.CompletionTokens)
	s.state = StateLogged

	entry := interview.TurnLogEntry{
		SessionID: s.id,
		SourceID:  s.summary.ID,
		Question:  s.currentQuestion,
		Answer:    answer,
		Followup:  completion.Content,
		LoggedAt:  s.stamp(),
	}
	if err := s.deps.Turns.AppendTurn(ctx, entry); err != nil {
		return s.fail(fmt.Errorf("record turn: %w", err))
	}

	s.turns++
	s.currentQuestion = completion.Content
	s.state = StateAwaitingAnswer
	log.Printf("[interview] session=%s logged turn=%d", s.id, s.turns)
	return nil
}

// Run starts the session and feeds it lines from in until it terminates.
// End of input ends the session like an exit command.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for s.state != StateTerminated {
		s.deps.Presenter.AnswerPrompt()
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return s.fail(fmt.Errorf("read answer: %w", err))
			}
			s.end()
			return nil
		}
		if err := s.Answer(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) end() {
	s.state = StateTerminated
	s.reason = ReasonNormal
	s.deps.Presenter.Ended()
	log.Printf("[interview] session=%s ended after %d turns", s.id, s.turns)
}

func (s *Session) fail(err error) error {
	s.state = StateTerminated
	s.reason = ReasonError
	s.err = err
	log.Printf("[interview] session=%s terminated: %v", s.id, err)
	return err
}

// stamp returns the log time for a turn, never earlier than the previous one.
func (s *Session) stamp() time.Time {
	now := s.deps.Now().UTC()
	if now.Before(s.lastLoggedAt) {
		now = s.lastLoggedAt
	}
	s.lastLoggedAt = now
	return now
}

func isExitCommand(answer string) bool {
	return strings.EqualFold(answer, "exit") || strings.EqualFold(answer, "quit")
}

type nopPresenter struct{}

func (nopPresenter) SummaryLoaded(string) {}
func (nopPresenter) Question(string)      {}
func (nopPresenter) Feedback(string)      {}
func (nopPresenter) Usage(int, int)       {}
func (nopPresenter) AnswerPrompt()        {}
func (nopPresenter) Ended()               {}
