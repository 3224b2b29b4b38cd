package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/ui"
)

const Version = "0.1.0"

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "questctl",
		Short:         "Operate a local Taskventure store",
		Long:          "questctl reads and changes the same quest, completion and XP state the Taskventure server serves.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("TASKVENTURE_CONFIG"), "path to a YAML config file")

	rootCmd.AddCommand(
		newStatusCmd(),
		newQuestsCmd(),
		newToggleCmd(),
		newGenerateCmd(),
		newExportCmd(),
		newRestoreCmd(),
		newTokenCmd(),
		newMigrateCmd(),
	)
	return rootCmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
