// Package logger records shell session events as JSON lines, one
// object per line, so hosting programs can tail or ship them without
// any framing beyond newlines.
package logger

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Kind labels what an event describes.
type Kind string

const (
	KindSessionStart Kind = "session_start"
	KindSessionEnd   Kind = "session_end"
	KindCommand      Kind = "command"
	KindJob          Kind = "job"
	KindError        Kind = "error"
)

// Event is one record in the session log. Exactly one of the payload
// fields is set, matching Kind.
type Event struct {
	Time      time.Time `json:"time"`
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`

	Command *CommandEvent `json:"command,omitempty"`
	Job     *JobEvent     `json:"job,omitempty"`
	Error   *ErrorEvent   `json:"error,omitempty"`
}

// CommandEvent records one dispatched command and its result.
type CommandEvent struct {
	Name     string   `json:"name"`
	Argv     []string `json:"argv"`
	ExitCode int      `json:"exit_code"`
}

// JobEvent records a job state transition.
type JobEvent struct {
	ID    int    `json:"id"`
	State string `json:"state"`
	Text  string `json:"text"`
}

// ErrorEvent records a reported interpreter error. Class is the error
// family (syntax, expansion, redirection, dispatch, job).
type ErrorEvent struct {
	Class   string `json:"class"`
	Message string `json:"message"`
}

// EventRecorder accepts session events. Implementations must tolerate
// concurrent calls.
type EventRecorder interface {
	Record(event Event) error
}

// NewJSONRecorder writes events to w as JSON lines. A nil clock uses
// time.Now.
func NewJSONRecorder(w io.Writer, clock func() time.Time) *JSONRecorder {
	if clock == nil {
		clock = time.Now
	}
	return &JSONRecorder{enc: json.NewEncoder(w), clock: clock}
}

// JSONRecorder is the standard EventRecorder.
type JSONRecorder struct {
	mu    sync.Mutex
	enc   *json.Encoder
	clock func() time.Time
}

var _ EventRecorder = (*JSONRecorder)(nil)

func (r *JSONRecorder) Record(event Event) error {
	if event.Time.IsZero() {
		event.Time = r.clock()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(event)
}

// NopRecorder drops every event, the default when no sink is wired.
type NopRecorder struct{}

var _ EventRecorder = (*NopRecorder)(nil)

func (NopRecorder) Record(Event) error { return nil }
