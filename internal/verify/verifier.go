// Package verify drives one request/response cycle against an agent: submit
// a prompt, poll the run to a terminal status under a fixed attempt budget,
// fetch the reply and validate it (non-empty text, citations when grounding
// is expected).
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/groundcheck/groundcheck/internal/config"
	"github.com/groundcheck/groundcheck/internal/foundry"
)

// SleepFunc waits for d or until ctx is done. Tests inject one that advances
// a fake clock instead of blocking.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Verifier submits and verifies single agent runs.
type Verifier struct {
	Client      foundry.Client
	Interval    time.Duration
	MaxAttempts int
	Sleep       SleepFunc
}

// New builds a Verifier with the configured polling bounds.
func New(client foundry.Client, poll config.PollConfig) *Verifier {
	return &Verifier{
		Client:      client,
		Interval:    poll.Interval,
		MaxAttempts: poll.MaxAttempts,
		Sleep:       defaultSleep,
	}
}

// Result is the outcome of a successful verification.
type Result struct {
	Text      string
	Citations []string
	Status    foundry.RunStatus
	Attempts  int
	ThreadID  string
	RunID     string
}

// statusRank orders run statuses for regression detection. Terminal statuses
// share the top rank; the poll loop stops there anyway.
func statusRank(s foundry.RunStatus) int {
	switch s {
	case foundry.RunQueued:
		return 0
	case foundry.RunInProgress:
		return 1
	case foundry.RunRequiresAction, foundry.RunCancelling:
		return 2
	default:
		return 3
	}
}

// Verify runs prompt against the agent and validates the reply. wantCitations
// makes a citation-free completion a failure; without it citations are not
// evaluated at all.
func (v *Verifier) Verify(ctx context.Context, agentID, prompt string, wantCitations bool) (*Result, error) {
	if prompt == "" {
		return nil, fmt.Errorf("verify: prompt must not be empty")
	}
	if v.MaxAttempts <= 0 {
		return nil, fmt.Errorf("verify: max attempts must be positive")
	}
	sleep := v.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	thread, err := v.Client.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	if _, err := v.Client.CreateMessage(ctx, thread.ID, foundry.RoleUser, prompt); err != nil {
		return nil, fmt.Errorf("post prompt: %w", err)
	}

	run, err := v.Client.CreateRun(ctx, thread.ID, agentID)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	attempts := 0
	lastStatus := run.Status
	for !run.Status.Terminal() {
		if run.Status == foundry.RunRequiresAction {
			return nil, ErrRequiresAction
		}
		if attempts >= v.MaxAttempts {
			return nil, &TimeoutError{Attempts: attempts, Interval: v.Interval}
		}

		if err := sleep(ctx, v.Interval); err != nil {
			return nil, err
		}
		attempts++

		run, err = v.Client.GetRun(ctx, thread.ID, run.ID)
		if err != nil {
			return nil, fmt.Errorf("poll run: %w", err)
		}

		if statusRank(run.Status) < statusRank(lastStatus) {
			return nil, &RegressionError{From: lastStatus, To: run.Status}
		}
		lastStatus = run.Status
	}

	if run.Status != foundry.RunCompleted {
		failure := &RunFailedError{Status: run.Status}
		if run.LastError != nil {
			failure.Code = run.LastError.Code
			failure.Reason = run.LastError.Message
		}
		return nil, failure
	}

	messages, err := v.Client.ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	reply, ok := newestAssistantMessage(messages)
	if !ok {
		return nil, fmt.Errorf("%w: no assistant message on thread", ErrEmptyResponse)
	}

	text, citations := reply.TextAndCitations()
	if text == "" {
		return nil, ErrEmptyResponse
	}
	if wantCitations && len(citations) == 0 {
		return nil, ErrMissingCitations
	}

	return &Result{
		Text:      text,
		Citations: citations,
		Status:    run.Status,
		Attempts:  attempts,
		ThreadID:  thread.ID,
		RunID:     run.ID,
	}, nil
}

// newestAssistantMessage picks the first assistant message from a
// newest-first list.
func newestAssistantMessage(messages []foundry.Message) (foundry.Message, bool) {
	for _, m := range messages {
		if m.Role == foundry.RoleAssistant {
			return m, true
		}
	}
	return foundry.Message{}, false
}
