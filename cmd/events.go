package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/josephlewis42/tinysh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var (
	sessionFilter string
	typeFilter    string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

// readEvents calls handler for every entry in the configured event log.
func readEvents(cmd *cobra.Command, handler func(le *logger.LogEntry)) error {
	configuration, err := loadConfig(log.New(cmd.ErrOrStderr(), "", 0))
	if err != nil {
		return err
	}

	fd, err := configuration.ReadEventLog()
	if err != nil {
		return err
	}
	defer fd.Close()

	return logger.ReadJSONLinesLog(fd, handler)
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		report := logger.NewReport()
		if err := readEvents(cmd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

var catEventsCommand = &cobra.Command{
	Use:   "cat",
	Short: "Print events one per line.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		w := cmd.OutOrStdout()
		var encodeErr error
		err := readEvents(cmd, func(le *logger.LogEntry) {
			if sessionFilter != "" && le.SessionID != sessionFilter {
				return
			}
			if typeFilter != "" && string(le.Type) != typeFilter {
				return
			}

			fields, err := json.Marshal(le.Fields)
			if err != nil {
				encodeErr = err
				return
			}

			timestamp := time.UnixMicro(le.TimestampMicros).UTC().Format(time.RFC3339)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", timestamp, le.SessionID, le.Type, fields)
		})
		if err != nil {
			return err
		}
		return encodeErr
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(catEventsCommand)

	catEventsCommand.Flags().StringVar(&sessionFilter, "session", "", "only show events from this session")
	catEventsCommand.Flags().StringVar(&typeFilter, "type", "", "only show events of this type (e.g. run_command)")
}
