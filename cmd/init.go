package cmd

import (
	"log"

	"github.com/josephlewis42/tinysh/core/config"
	"github.com/spf13/cobra"
)

// initCmd intializes the shell configuration
var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Write the default configuration, ~/" + config.DefaultDirName + " unless DIR is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		dir := cfgPath
		if len(args) > 0 {
			dir = args[0]
		}
		if dir == "" {
			defaultDir, err := config.DefaultDir()
			if err != nil {
				return err
			}
			dir = defaultDir
		}

		_, err := config.Initialize(dir, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
