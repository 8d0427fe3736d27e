package logger

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventType identifies the kind of a log entry.
type EventType string

const (
	EventRunCommand   EventType = "run_command"
	EventCommandExit  EventType = "command_exit"
	EventBuiltin      EventType = "builtin"
	EventSpawnError   EventType = "spawn_error"
	EventJobStarted   EventType = "job_started"
	EventJobReaped    EventType = "job_reaped"
	EventJobUntracked EventType = "job_untracked"
)

// Reserved field names.
const (
	FieldTimestampMicros = "timestamp_micros"
	FieldSessionID       = "session_id"
	FieldType            = "type"
)

// Fields holds the event specific payload. Values must be representable as
// a google.protobuf.Value.
type Fields map[string]interface{}

// LogEntry is a single event.
type LogEntry struct {
	TimestampMicros int64
	SessionID       string
	Type            EventType
	Fields          Fields
}

// ToStruct converts the entry to its wire representation.
func (le *LogEntry) ToStruct() (*structpb.Struct, error) {
	raw := make(map[string]interface{}, len(le.Fields)+3)
	for k, v := range le.Fields {
		raw[k] = v
	}
	raw[FieldTimestampMicros] = le.TimestampMicros
	raw[FieldSessionID] = le.SessionID
	raw[FieldType] = string(le.Type)

	return structpb.NewStruct(raw)
}

// FromStruct populates the entry from its wire representation.
func (le *LogEntry) FromStruct(s *structpb.Struct) {
	raw := s.AsMap()

	if ts, ok := raw[FieldTimestampMicros].(float64); ok {
		le.TimestampMicros = int64(ts)
	}
	le.SessionID, _ = raw[FieldSessionID].(string)
	if eventType, ok := raw[FieldType].(string); ok {
		le.Type = EventType(eventType)
	}

	delete(raw, FieldTimestampMicros)
	delete(raw, FieldSessionID)
	delete(raw, FieldType)
	le.Fields = raw
}

// String returns a field as a string, or the empty string if it's missing.
func (le *LogEntry) String(name string) string {
	s, _ := le.Fields[name].(string)
	return s
}

// Strings returns a list field as strings.
func (le *LogEntry) Strings(name string) []string {
	list, _ := le.Fields[name].([]interface{})
	var out []string
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interaction event logs for the shell.
type Logger struct {
	Record LogRecorder
	now    func() time.Time
}

// NewJSONLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(le *LogEntry) error {
			msg, err := le.ToStruct()
			if err != nil {
				return err
			}
			entry, err := protojson.Marshal(msg)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// Nop returns a Logger that discards all events.
func Nop() *Logger {
	return &Logger{
		Record: func(*LogEntry) error { return nil },
	}
}

func (l *Logger) timestamp() int64 {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return now().UnixNano() / int64(time.Microsecond)
}

func (l *Logger) recordEvent(sessionID string, eventType EventType, fields Fields) error {
	return l.Record(&LogEntry{
		TimestampMicros: l.timestamp(),
		SessionID:       sessionID,
		Type:            eventType,
		Fields:          fields,
	})
}

// NewSession creates a logger with a random session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger with no session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every event.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Record logs an event of the given type.
func (l *SessionLogger) Record(eventType EventType, fields Fields) error {
	return l.recordEvent(l.sessionID, eventType, fields)
}

// RunCommand records a statement about to be launched.
func (l *SessionLogger) RunCommand(args []string, background bool, stages int) error {
	return l.Record(EventRunCommand, Fields{
		"command":    stringList(args),
		"background": background,
		"stages":     stages,
	})
}

// CommandExit records the exit status of a foreground command.
func (l *SessionLogger) CommandExit(args []string, exitCode int) error {
	return l.Record(EventCommandExit, Fields{
		"command":   stringList(args),
		"exit_code": exitCode,
	})
}

// Builtin records a builtin invocation.
func (l *SessionLogger) Builtin(args []string) error {
	return l.Record(EventBuiltin, Fields{
		"command": stringList(args),
	})
}

// SpawnError records a command that couldn't be started.
func (l *SessionLogger) SpawnError(args []string, err error) error {
	return l.Record(EventSpawnError, Fields{
		"command": stringList(args),
		"error":   err.Error(),
	})
}

// JobStarted records a background job being tracked.
func (l *SessionLogger) JobStarted(pid int, args []string) error {
	return l.Record(EventJobStarted, Fields{
		"pid":     pid,
		"command": stringList(args),
	})
}

// JobReaped records a background job being reclaimed.
func (l *SessionLogger) JobReaped(pid int) error {
	return l.Record(EventJobReaped, Fields{
		"pid": pid,
	})
}

// JobUntracked records a background job that didn't fit in the job table.
func (l *SessionLogger) JobUntracked(pid int) error {
	return l.Record(EventJobUntracked, Fields{
		"pid": pid,
	})
}

func stringList(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
