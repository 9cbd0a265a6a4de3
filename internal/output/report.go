package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"cicompare/internal/classify"
	"cicompare/internal/outcome"
	"cicompare/internal/publish"
)

var verdictBadge = map[outcome.Verdict]string{
	outcome.VerdictSuccess: "✅ success",
	outcome.VerdictWarn:    "⚠️ small diffs",
	outcome.VerdictFail:    "❌ big diffs",
}

// SummarySink renders a Markdown summary of the run on Close, suitable for a
// CI step summary.
type SummarySink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	runID        string
	caseName     string
	results      []classify.Result
	outcome      *outcome.Outcome
	publish      *publish.Result
	dryRun       bool
	exitCode     int
	haveExitCode bool
}

func NewSummarySink(path string) (*SummarySink, error) {
	if path == "" {
		return nil, fmt.Errorf("summary path required")
	}

	// Appends so several runs can share one step summary file.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary file: %w", err)
	}

	return &SummarySink{path: path, file: f}, nil
}

func (s *SummarySink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case classify.Result:
		s.results = append(s.results, t)
	case Event:
		if t.RunID != "" {
			s.runID = t.RunID
		}
		if t.Case != "" {
			s.caseName = t.Case
		}
		switch t.Type {
		case EventOutcome:
			s.outcome = t.Outcome
		case EventPublishFinished:
			s.publish = t.Publish
			s.dryRun = t.DryRun
		case EventRunFinished:
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *SummarySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.file.WriteString(s.render())
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *SummarySink) render() string {
	var b strings.Builder
	title := "Regression Comparison"
	if s.caseName != "" {
		title += ": " + s.caseName
	}
	b.WriteString("# " + title + "\n\n")

	if s.outcome == nil {
		b.WriteString("No outcome was produced; the run failed before classification.\n\n")
	} else {
		b.WriteString(fmt.Sprintf("**Verdict:** %s\n\n", verdictBadge[s.outcome.Verdict()]))
		counts := s.outcome.Counts()
		b.WriteString(fmt.Sprintf("Big: %d, Small: %d, Equal: %d, Not compared: %d\n\n",
			counts[classify.SeverityBig], counts[classify.SeveritySmall],
			counts[classify.SeverityEqual], counts[classify.SeverityNotCompared]))
	}

	var compared []classify.Result
	for _, r := range s.results {
		if r.Severity != classify.SeverityNotCompared {
			compared = append(compared, r)
		}
	}
	b.WriteString("## Artifacts\n\n")
	if len(compared) == 0 {
		b.WriteString("No artifacts were compared.\n\n")
	} else {
		b.WriteString("| Artifact | Label | Strategy | Severity | Message |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, r := range compared {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n", r.Artifact, r.Artifact.Label(), r.Strategy, r.Severity, r.Message))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Publication\n\n")
	switch {
	case s.dryRun:
		b.WriteString("Skipped (dry run).\n\n")
	case s.publish == nil:
		b.WriteString("Not needed.\n\n")
	default:
		b.WriteString(fmt.Sprintf("%s to `%s`", s.publish.Summary(), s.publish.Backend))
		if !s.publish.Success {
			b.WriteString(" with errors")
		}
		b.WriteString(".\n\n")
		if s.publish.URL != "" {
			b.WriteString(fmt.Sprintf("[Regression Results](%s)\n\n", s.publish.URL))
		}
		for _, e := range s.publish.Errors {
			b.WriteString(fmt.Sprintf("- %s\n", e))
		}
		if len(s.publish.Errors) > 0 {
			b.WriteString("\n")
		}
	}

	if s.runID != "" || s.haveExitCode {
		b.WriteString("---\n\n")
		if s.runID != "" {
			b.WriteString(fmt.Sprintf("Run ID: `%s`", s.runID))
		}
		if s.haveExitCode {
			if s.runID != "" {
				b.WriteString(" | ")
			}
			b.WriteString(fmt.Sprintf("Exit code: %d", s.exitCode))
		}
		b.WriteString("\n")
	}
	return b.String()
}
