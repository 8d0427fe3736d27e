package config

import (
	_ "embed"
	"errors"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	DefaultDirName    = ".tinysh"
)

// Color modes.
const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

// ErrNoEventLog is returned when the event log is disabled.
var ErrNoEventLog = errors.New("event log disabled")

type Configuration struct {
	configFs afero.Fs

	Prompt        string `json:"prompt" validate:"required"`
	Color         string `json:"color" validate:"oneof=auto always never"`
	ExitMessage   string `json:"exit_message"`
	MaxJobs       int    `json:"max_jobs" validate:"gte=1"`
	MaxLineLength int    `json:"max_line_length" validate:"gte=1"`
	NotifyDone    bool   `json:"notify_done"`
	EventLog      string `json:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// EventLogEnabled returns true if events should be recorded.
func (c *Configuration) EventLogEnabled() bool {
	return c.fs() != nil && c.EventLog != ""
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if !c.EventLogEnabled() {
		return nil, ErrNoEventLog
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	if !c.EventLogEnabled() {
		return nil, ErrNoEventLog
	}
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration. It isn't backed by a directory
// so the event log is disabled.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
