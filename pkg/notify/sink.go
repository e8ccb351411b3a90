package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/proctorcam/internal/log"
)

// Sink is the production Notifier: a Banner for alerts, a Feed for log
// entries and a modal slot. Every change is published when a Publisher is
// attached.
type Sink struct {
	banner *Banner
	feed   *Feed
	logger *slog.Logger

	mu        sync.RWMutex
	modal     string
	publisher Publisher
}

// NewSink builds a sink with the given alert duration and log capacity.
func NewSink(alertDuration time.Duration, logCapacity int, logger *slog.Logger) *Sink {
	s := &Sink{
		banner: NewBanner(alertDuration),
		feed:   NewFeed(logCapacity),
		logger: log.Or(logger).With("component", "notify"),
	}

	s.banner.OnChange(func(a AlertState) {
		typ := EventAlert
		if !a.Visible {
			typ = EventAlertHidden
		}
		s.publish(Event{Type: typ, Alert: &a})
	})
	s.feed.OnAdd(func(e Entry) {
		s.publish(Event{Type: EventLog, Entry: &e})
	})

	return s
}

// SetPublisher attaches p. Pass nil to detach.
func (s *Sink) SetPublisher(p Publisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

// Notify implements Notifier.
func (s *Sink) Notify(sev Severity, message string) {
	s.logger.Debug("alert", "severity", sev, "message", message)
	s.banner.Show(message, sev.IsError())
}

// Log implements Notifier.
func (s *Sink) Log(sev Severity, message string) {
	s.logger.Info("log entry", "severity", sev, "message", message)
	s.feed.Add(message, sev)
}

// Block implements Notifier.
func (s *Sink) Block(message string) {
	s.logger.Error("blocking notification", "message", message)
	s.mu.Lock()
	s.modal = message
	s.mu.Unlock()
	s.publish(Event{Type: EventModal, Modal: message})
}

// Alert returns the banner state.
func (s *Sink) Alert() AlertState {
	return s.banner.State()
}

// Entries returns the log feed, newest first.
func (s *Sink) Entries() []Entry {
	return s.feed.Entries()
}

// Modal returns the blocking message, or "" when none is shown.
func (s *Sink) Modal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modal
}

// Close cancels the pending banner timer.
func (s *Sink) Close() {
	s.banner.Stop()
}

func (s *Sink) publish(ev Event) {
	s.mu.RLock()
	p := s.publisher
	s.mu.RUnlock()
	if p == nil {
		return
	}
	if err := p.BroadcastJSON(ev); err != nil {
		s.logger.Warn("publish event failed", "type", ev.Type, "error", err)
	}
}
