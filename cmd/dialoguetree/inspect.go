package main

import (
	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/presentation/tui"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [asset-id]",
	Short: "Print the lines and options of a dialogue tree",
	Long: `Decodes the runtime form of a stored asset (or of an authoring stream given with --file)
and prints every line with its options, followed by a reachability report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		asset, err := a.resolveAsset(cmd, args)
		if err != nil {
			return err
		}
		view, err := dialoguetree.LoadRuntime(asset)
		if err != nil {
			return err
		}

		p := tui.NewPrinter(cmd.OutOrStdout())
		p.PrintView(view)
		p.PrintReport(compiler.Reachability(view))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("file", "f", "", "Read an authoring stream instead of a stored asset ('-' for stdin)")
}
