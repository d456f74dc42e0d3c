package main

import (
	"github.com/spf13/cobra"

	"tasklogger/internal/config"
	"tasklogger/internal/ui"
)

var (
	configPath  string
	backendFlag string
)

var rootCmd = &cobra.Command{
	Use:           "tasklogger",
	Short:         "Log tasks to SQLite or a preference file",
	Long:          `Task Logger keeps a list of tasks with an optional deadline and notes. Tasks live either in an sqlite database or in a preference file; the two are separate lists.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return ui.Run(a.list, a.cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.ResolveConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: sqlite or prefs (overrides config)")

	rootCmd.AddCommand(listCmd, addCmd, doneCmd, rmCmd, statusCmd)
}
