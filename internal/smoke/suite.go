// Package smoke sequences the two verification scenarios: a plain agent that
// must answer, and a Bing-grounded agent that must answer with citations.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groundcheck/groundcheck/internal/foundry"
	"github.com/groundcheck/groundcheck/internal/verify"
)

// Scenario names, also used as history-store keys.
const (
	ScenarioNoGrounding   = "no-grounding"
	ScenarioBingGrounding = "bing-grounding"
)

// Prompts mirror the original comparison: same question with and without web
// grounding.
const (
	comparisonPrompt = "What is today's date and the current weather in Seattle? " +
		"Include source URLs if you used web grounding."

	nonGroundedPrompt = "Question 1 (NO grounding): " + comparisonPrompt +
		" Do not browse the web; answer from general knowledge."

	groundedPrompt = "Question 2 (BING grounded): What is today's date and the current weather in Seattle? " +
		"Use Grounding with Bing Search and include source URLs."

	plainInstructions = "You are a helpful assistant. Answer concisely. If you don't know, say so."

	groundedInstructions = "You are a helpful assistant. Use Bing grounding to answer the user " +
		"and include at least one citation."
)

// Classifications for scenario outcomes.
const (
	ClassPass             = "pass"
	ClassTimeout          = "timeout"
	ClassRunFailed        = "run_failed"
	ClassRequiresAction   = "requires_action"
	ClassEmptyResponse    = "empty_response"
	ClassMissingCitations = "missing_citations"
	ClassError            = "error" // transport/auth/config, propagated unclassified
)

// Classify maps a verification error to its report classification.
func Classify(err error) string {
	var timeout *verify.TimeoutError
	var failed *verify.RunFailedError
	switch {
	case err == nil:
		return ClassPass
	case errors.As(err, &timeout):
		return ClassTimeout
	case errors.As(err, &failed):
		return ClassRunFailed
	case errors.Is(err, verify.ErrRequiresAction):
		return ClassRequiresAction
	case errors.Is(err, verify.ErrEmptyResponse):
		return ClassEmptyResponse
	case errors.Is(err, verify.ErrMissingCitations):
		return ClassMissingCitations
	}
	return ClassError
}

// ScenarioReport is the outcome of one scenario.
type ScenarioReport struct {
	Name           string
	Skipped        bool
	Passed         bool
	Classification string
	Text           string
	Citations      []string
	Attempts       int
	Duration       time.Duration
	Err            error
}

// Report is the outcome of a full suite run.
type Report struct {
	Endpoint   string
	Model      string
	StartedAt  time.Time
	FinishedAt time.Time
	Scenarios  []ScenarioReport
}

// Passed reports whether every executed scenario passed.
func (r *Report) Passed() bool {
	for _, s := range r.Scenarios {
		if !s.Skipped && !s.Passed {
			return false
		}
	}
	return true
}

// Options selects what the suite runs against.
type Options struct {
	Endpoint      string
	Model         string
	ConnectionRef string // resolved Bing connection id or name; may be empty
	SkipGrounding bool
}

// Suite runs the smoke scenarios. Out receives the console transcript.
type Suite struct {
	Client   foundry.Client
	Verifier *verify.Verifier
	Out      io.Writer
}

// Run executes both scenarios. A scenario failure never aborts the other
// scenario; only the report records it.
func (s *Suite) Run(ctx context.Context, opts Options) *Report {
	report := &Report{
		Endpoint:  opts.Endpoint,
		Model:     opts.Model,
		StartedAt: time.Now().UTC(),
	}

	report.Scenarios = append(report.Scenarios, s.runPlain(ctx, opts))

	if opts.SkipGrounding {
		fmt.Fprintln(s.Out, "\nBing grounding scenario skipped (SKIP_BING_GROUNDING set).")
		report.Scenarios = append(report.Scenarios, ScenarioReport{
			Name:    ScenarioBingGrounding,
			Skipped: true,
		})
	} else {
		report.Scenarios = append(report.Scenarios, s.runGrounded(ctx, opts))
	}

	report.FinishedAt = time.Now().UTC()
	return report
}

func (s *Suite) runPlain(ctx context.Context, opts Options) ScenarioReport {
	fmt.Fprintln(s.Out, "\nINPUT (non-grounded)")
	fmt.Fprintln(s.Out, nonGroundedPrompt)

	return s.runScenario(ctx, ScenarioNoGrounding, "Non-grounded response", foundry.CreateAgentRequest{
		Model:        opts.Model,
		Name:         agentName("gk-no-grounding"),
		Instructions: plainInstructions,
	}, nonGroundedPrompt, false)
}

func (s *Suite) runGrounded(ctx context.Context, opts Options) ScenarioReport {
	if opts.ConnectionRef == "" {
		err := fmt.Errorf("missing Bing grounding connection reference: set BING_GROUNDING_CONNECTION_ID " +
			"or BING_GROUNDING_CONNECTION_NAME, or set SKIP_BING_GROUNDING=1 to skip intentionally")
		fmt.Fprintf(s.Out, "\nFAIL (%s): %v\n", ScenarioBingGrounding, err)
		return ScenarioReport{
			Name:           ScenarioBingGrounding,
			Classification: ClassError,
			Err:            err,
		}
	}

	fmt.Fprintln(s.Out, "\nINPUT (bing-grounded)")
	fmt.Fprintln(s.Out, groundedPrompt)

	return s.runScenario(ctx, ScenarioBingGrounding, "Bing-grounded response", foundry.CreateAgentRequest{
		Model:        opts.Model,
		Name:         agentName("gk-bing-grounding"),
		Instructions: groundedInstructions,
		Tools:        []foundry.ToolDefinition{foundry.NewBingGroundingTool(opts.ConnectionRef)},
	}, groundedPrompt, true)
}

// runScenario creates an agent, verifies one run against it and tears the
// agent down best-effort.
func (s *Suite) runScenario(ctx context.Context, name, title string, req foundry.CreateAgentRequest, prompt string, wantCitations bool) ScenarioReport {
	started := time.Now()
	sr := ScenarioReport{Name: name}

	agent, err := s.Client.CreateAgent(ctx, req)
	if err != nil {
		sr.Err = fmt.Errorf("create agent: %w", err)
		sr.Classification = ClassError
		fmt.Fprintf(s.Out, "\nFAIL (%s): %v\n", name, sr.Err)
		return sr
	}
	defer func() {
		// Cleanup is best-effort; a leaked smoke agent expires on its own.
		_ = s.Client.DeleteAgent(ctx, agent.ID)
	}()

	res, err := s.Verifier.Verify(ctx, agent.ID, prompt, wantCitations)
	sr.Duration = time.Since(started)
	if err != nil {
		sr.Err = err
		sr.Classification = Classify(err)
		fmt.Fprintf(s.Out, "\nFAIL (%s, %s): %v\n", name, sr.Classification, err)
		return sr
	}

	sr.Passed = true
	sr.Classification = ClassPass
	sr.Text = res.Text
	sr.Citations = res.Citations
	sr.Attempts = res.Attempts

	s.printResult(title, res.Text, res.Citations, wantCitations)
	return sr
}

// printResult writes the response banner: text, then a Citations: header
// with one URL per line (always present for grounded scenarios).
func (s *Suite) printResult(title, text string, citations []string, grounded bool) {
	fmt.Fprintln(s.Out, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(s.Out, title)
	fmt.Fprintln(s.Out, strings.Repeat("=", 80))

	if text == "" {
		fmt.Fprintln(s.Out, "(empty response)")
	} else {
		fmt.Fprintln(s.Out, text)
	}

	if grounded || len(citations) > 0 {
		fmt.Fprintln(s.Out, "\nCitations:")
		for _, url := range dedupe(citations) {
			fmt.Fprintf(s.Out, "- %s\n", url)
		}
	}
}

// dedupe removes duplicate URLs preserving first-seen order.
func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// agentName appends a short unique suffix so repeated smoke runs never
// collide on agent names.
func agentName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
