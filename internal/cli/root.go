package cli

import (
	"github.com/spf13/cobra"
)

// Options are the flags shared by every subcommand.
type Options struct {
	ConfigFile string
	LogLevel   string
	DryRun     bool
}

func NewRootCmd() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "sap-etl",
		Short: "sap-etl - SAP sales data pipeline",
		Long: `sap-etl extracts SAP sales entities from the source API, stages raw CSV
snapshots in object storage, cleans every entity and replaces the matching
warehouse tables before refreshing the products dimension.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to a YAML config file applied over the environment")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "Stage in memory and skip warehouse writes")

	rootCmd.AddCommand(
		newExtractCmd(opts),
		newTransformLoadCmd(opts),
		newCallProcedureCmd(opts),
		newRunCmd(opts),
		newTransformCmd(opts),
	)

	return rootCmd
}
