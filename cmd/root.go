package cmd

import (
	"errors"
	"io"
	"io/fs"
	"log"

	"github.com/josephlewis42/tinysh/core"
	"github.com/josephlewis42/tinysh/core/config"
	"github.com/josephlewis42/tinysh/core/logger"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	commandFlag string
	verbose     bool
)

func newLogger(cmd *cobra.Command) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "[tinysh] ", 0)
}

// loadConfig reads the configuration named by --config. Without the flag the
// default directory is used and the built-in defaults fill in if it hasn't
// been initialized.
func loadConfig(opLog *log.Logger) (*config.Configuration, error) {
	path := cfgPath
	if path == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}

		configuration, err := config.Load(dir)
		if errors.Is(err, fs.ErrNotExist) {
			opLog.Printf("- No configuration in %s, using defaults", dir)
			return config.Default(), nil
		}
		return configuration, err
	}

	configuration, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		opLog.Println("Couldn't load config: did you run init?")
	}
	return configuration, err
}

// openEvents creates the session event logger, the returned function closes
// the underlying log.
func openEvents(configuration *config.Configuration, opLog *log.Logger) (*logger.SessionLogger, func() error, error) {
	if !configuration.EventLogEnabled() {
		opLog.Println("- Event log disabled")
		return nil, func() error { return nil }, nil
	}

	opLog.Printf("- Opening event log %s", configuration.EventLog)
	fd, err := configuration.OpenEventLog()
	if err != nil {
		return nil, nil, err
	}

	return logger.NewJSONLinesLogRecorder(fd).NewSession(), fd.Close, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tinysh",
	Short: "A tiny interactive shell",
	Long: `A small command interpreter with redirection, pipelines and background jobs.

Statements are separated by ';', stages by '|'. '< FILE' and '> FILE'
redirect input and output and a trailing '&' runs a statement in the
background.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		opLog := newLogger(cmd)

		configuration, err := loadConfig(opLog)
		if err != nil {
			return err
		}

		events, closeEvents, err := openEvents(configuration, opLog)
		if err != nil {
			return err
		}
		defer closeEvents()

		streams := core.IO{
			Stdin:  cmd.InOrStdin(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}
		shell := core.NewShell(configuration, streams, events)

		if cmd.Flags().Changed("command") {
			opLog.Printf("- Running %q", commandFlag)
			shell.RunLine(commandFlag)
			return nil
		}

		reader, err := core.NewLineReader(streams, configuration.MaxLineLength)
		if err != nil {
			return err
		}
		defer reader.Close()

		opLog.Println("- Starting interactive session")
		return shell.Run(reader)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config path (default ~/"+config.DefaultDirName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log startup and teardown")
	rootCmd.Flags().StringVarP(&commandFlag, "command", "c", "", "run a single line and exit")
}
