package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	protocolMessagePrefix = "[decent_ci:test_result:message] "
	protocolWarn          = "[decent_ci:test_result:warn]"
	protocolSuccess       = "Success"
)

// ConsoleSink writes the line protocol read by the CI dashboard:
//
//	[decent_ci:test_result:message] <msg>   one per differing artifact
//	[decent_ci:test_result:warn]            iff small diffs were found
//	<a href='<url>'>Regression Results</a>  iff an index page was published
//	Success                                 iff the outcome has no big diffs
//
// Success is independent of publication.
type ConsoleSink struct {
	writer io.Writer
	mu     sync.Mutex

	sawOutcome bool
	success    bool
	hasDiffs   bool
}

type flusher interface {
	Flush() error
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{writer: w}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	println := func(args ...any) error {
		_, err := fmt.Fprintln(s.writer, args...)
		return err
	}

	e, ok := v.(Event)
	if !ok {
		// Classification results reach the protocol through the outcome event.
		return nil
	}

	switch e.Type {
	case EventOutcome:
		if e.Outcome == nil {
			return nil
		}
		s.sawOutcome = true
		s.success = e.Outcome.Success
		s.hasDiffs = e.Outcome.HasDiffs
		for _, msg := range e.Outcome.Messages() {
			if err := println(protocolMessagePrefix + msg); err != nil {
				return err
			}
		}
		if e.Outcome.HasSmallDiffs {
			if err := println(protocolWarn); err != nil {
				return err
			}
		}
	case EventPublishFinished:
		if e.Publish == nil || e.Publish.URL == "" {
			return nil
		}
		if err := println(fmt.Sprintf("<a href='%s'>Regression Results</a>", e.Publish.URL)); err != nil {
			return err
		}
	case EventRunFinished:
		if !s.sawOutcome || !s.success || s.hasDiffs {
			return nil
		}
		if err := println(protocolSuccess); err != nil {
			return err
		}
	default:
		return nil
	}
	return s.flush()
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// flush pushes buffered protocol lines to the underlying writer.
func (s *ConsoleSink) flush() error {
	if f, ok := s.writer.(flusher); ok {
		return f.Flush()
	}
	return nil
}
