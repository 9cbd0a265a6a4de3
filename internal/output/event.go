package output

import (
	"cicompare/internal/classify"
	"cicompare/internal/outcome"
	"cicompare/internal/publish"
)

const (
	EventRunStarted         = "run.started"
	EventArtifactClassified = "artifact.classified"
	EventOutcome            = "outcome"
	EventPublishFile        = "publish.file"
	EventPublishFinished    = "publish.finished"
	EventRunFinished        = "run.finished"
)

// Event is a lifecycle record of one comparison run.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), in order:
// - run.started
// - artifact.classified (one per artifact type)
// - outcome
// - publish.file (one per attempted artifact; only when publishing)
// - publish.finished (only when publication was needed)
// - run.finished
//
// JSON mode remains an aggregate of classify.Result values.
type Event struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
	Case  string `json:"case,omitempty"`

	*classify.Result

	Outcome *outcome.Outcome    `json:"outcome,omitempty"`
	File    *publish.FileResult `json:"file,omitempty"`
	Publish *publish.Result     `json:"publish,omitempty"`

	// DryRun marks a publish.finished event for a run that skipped uploads.
	DryRun   bool `json:"dry_run,omitempty"`
	ExitCode int  `json:"exit_code,omitempty"`
}

func eventFromResult(r classify.Result) Event {
	return Event{Type: EventArtifactClassified, Result: &r}
}
