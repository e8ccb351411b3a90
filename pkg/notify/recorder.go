package notify

import "sync"

// Call records one Notifier invocation.
type Call struct {
	Kind     string // "notify", "log" or "block"
	Severity Severity
	Message  string
}

// Recorder is an in-memory Notifier for tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements Notifier.
func (r *Recorder) Notify(sev Severity, message string) {
	r.record(Call{Kind: "notify", Severity: sev, Message: message})
}

// Log implements Notifier.
func (r *Recorder) Log(sev Severity, message string) {
	r.record(Call{Kind: "log", Severity: sev, Message: message})
}

// Block implements Notifier.
func (r *Recorder) Block(message string) {
	r.record(Call{Kind: "block", Severity: SeverityError, Message: message})
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Alerts returns the Notify calls.
func (r *Recorder) Alerts() []Call { return r.filter("notify") }

// Logs returns the Log calls.
func (r *Recorder) Logs() []Call { return r.filter("log") }

// Blocks returns the Block calls.
func (r *Recorder) Blocks() []Call { return r.filter("block") }

// LastAlert returns the most recent Notify call, if any.
func (r *Recorder) LastAlert() (Call, bool) {
	alerts := r.Alerts()
	if len(alerts) == 0 {
		return Call{}, false
	}
	return alerts[len(alerts)-1], true
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *Recorder) filter(kind string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
