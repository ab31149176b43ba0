package main

import (
	"fmt"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/presentation/graph"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [asset-id]",
	Short: "Export the dialogue graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the runtime form, marking unreachable lines and dead ends.`,
	Args:  cobra.MaximumNArgs(1),
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

		var overlay *graph.GraphOverlay
		if plain, _ := cmd.Flags().GetBool("plain"); !plain {
			overlay = graph.OverlayFromReport(compiler.Reachability(view))
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(view, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("file", "f", "", "Read an authoring stream instead of a stored asset ('-' for stdin)")
	graphCmd.Flags().Bool("plain", false, "Do not highlight unreachable lines and dead ends")
}
