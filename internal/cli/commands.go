package cli

import (
	"github.com/spf13/cobra"
)

func newExtractCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract every endpoint and stage a CSV snapshot",
		RunE: func(c *cobra.Command, args []string) error {
			return runExtract(c.Context(), opts)
		},
	}
}

func newTransformLoadCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "transform-load",
		Short: "Transform the latest snapshots and replace the warehouse tables",
		RunE: func(c *cobra.Command, args []string) error {
			return runTransformLoad(c.Context(), opts)
		},
	}
}

func newCallProcedureCmd(opts *Options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "call-procedure",
		Short: "Run the downstream stored procedure",
		RunE: func(c *cobra.Command, args []string) error {
			return runCallProcedure(c.Context(), opts, name)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Procedure name (defaults to WAREHOUSE_PROCEDURE)")
	return cmd
}

func newRunCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run extract, transform-load and the procedure as one pipeline",
		RunE: func(c *cobra.Command, args []string) error {
			return runPipeline(c.Context(), opts)
		},
	}
}

// TransformOptions are the flags of the offline transform command.
type TransformOptions struct {
	Entity string
	In     string
	Out    string
}

func newTransformCmd(opts *Options) *cobra.Command {
	topts := &TransformOptions{}
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Clean one entity from a local CSV file",
		RunE: func(c *cobra.Command, args []string) error {
			return runTransformFile(opts, topts)
		},
	}
	cmd.Flags().StringVarP(&topts.Entity, "entity", "e", "", "Entity name, e.g. sales_orders")
	cmd.Flags().StringVarP(&topts.In, "in", "i", "", "Raw CSV input file")
	cmd.Flags().StringVarP(&topts.Out, "out", "o", "-", "Cleaned CSV output file (- for stdout)")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
