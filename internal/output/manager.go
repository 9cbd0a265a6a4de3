package output

import (
	"errors"
	"fmt"
)

// Sink defines a destination for classification results and run events.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans writes out to every registered sink. A failing sink never
// prevents the remaining sinks from receiving the value.
type Manager struct {
	sinks  []Sink
	closed bool
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(sinks ...Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	for _, s := range sinks {
		if s == nil {
			return fmt.Errorf("sink must not be nil")
		}
	}
	m.sinks = append(m.sinks, sinks...)
	return nil
}

func (m *Manager) Write(v any) error {
	return m.each("write", func(s Sink) error { return s.Write(v) })
}

// Close closes every sink once. Later calls are no-ops.
func (m *Manager) Close() error {
	if m != nil && m.closed {
		return nil
	}
	err := m.each("close", func(s Sink) error { return s.Close() })
	if m != nil {
		m.closed = true
	}
	return err
}

func (m *Manager) each(op string, fn func(Sink) error) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if m.closed {
		return fmt.Errorf("output manager is closed")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, fmt.Errorf("%s %T: %w", op, s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors on %s to sinks: %w", op, errors.Join(errs...))
	}
	return nil
}
