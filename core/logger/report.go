package logger

import (
	"encoding/json"
	"io"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var msg structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &msg); err != nil {
			return err
		}

		var logEntry LogEntry
		logEntry.FromStruct(&msg)
		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	Sessions   StrCounter `json:"sessions"`
	EventTypes StrCounter `json:"event_types"`

	RunCommand RunCommandReport `json:"run_command_report"`
	SpawnError *PathCounter     `json:"spawn_error_report"`
	Jobs       JobReport        `json:"job_report"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		SpawnError: NewPathCounter("command", "error"),
	}
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	r.Sessions.Increment(le.SessionID)
	r.EventTypes.Increment(string(le.Type))

	switch le.Type {
	case EventRunCommand:
		r.RunCommand.update(le)
	case EventSpawnError:
		if command := le.Strings("command"); len(command) > 0 {
			r.SpawnError.Increment(command[0], le.String("error"))
		}
	case EventJobStarted:
		r.Jobs.Started++
	case EventJobReaped:
		r.Jobs.Reaped++
	case EventJobUntracked:
		r.Jobs.Untracked++
	}
}

type RunCommandReport struct {
	// Name of the first program in each statement.
	CommandNames StrCounter `json:"command_names"`
	// Number of statements run in the background.
	Background int `json:"background"`
	// Number of statements with more than one stage.
	Pipelines int `json:"pipelines"`
}

func (r *RunCommandReport) update(le *LogEntry) {
	if command := le.Strings("command"); len(command) > 0 {
		r.CommandNames.Increment(command[0])
	}
	if background, _ := le.Fields["background"].(bool); background {
		r.Background++
	}
	if stages, _ := le.Fields["stages"].(float64); stages > 1 {
		r.Pipelines++
	}
}

type JobReport struct {
	Started   int `json:"started"`
	Reaped    int `json:"reaped"`
	Untracked int `json:"untracked"`
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of string tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the given tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements a custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
