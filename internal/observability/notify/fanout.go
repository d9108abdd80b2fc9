// Package notify fans staff notifications out to every configured sink.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/target/lab-portal/internal/ports"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink ports.Notifier
}

// Options configures the fan-out.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Fanout delivers each notification to all registered sinks concurrently.
type Fanout struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

var _ ports.Notifier = (*Fanout)(nil)

// NewFanout constructs a Fanout, skipping nil sinks.
func NewFanout(opts Options) *Fanout {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "staff_notifier")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Fanout{logger: logger, sinks: sinks}
}

// Notify sends n to every sink and waits for all of them. One sink failing
// does not stop the others; the failures are joined.
func (f *Fanout) Notify(ctx context.Context, n ports.Notification) error {
	if len(f.sinks) == 0 {
		return nil
	}

	errs := make([]error, len(f.sinks))
	var wg sync.WaitGroup
	for i, entry := range f.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.Notify(ctx, n); err != nil {
				f.logger.ErrorContext(ctx, "staff notification delivery error",
					"sink", entry.Name,
					"subject", n.Subject,
					"error", err,
				)
				errs[i] = fmt.Errorf("%s: %w", entry.Name, err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Enabled reports whether the fan-out has any active sinks.
func (f *Fanout) Enabled() bool {
	return len(f.sinks) > 0
}

// Names lists the registered sinks in order.
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.sinks))
	for _, s := range f.sinks {
		names = append(names, s.Name)
	}
	return names
}
