package main

import (
	"encoding/json"

	"github.com/aretw0/dialoguetree/internal/cli"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [authoring-file|-]",
	Short: "Compile an authoring stream into a runtime stream",
	Long: `Reads an authoring stream (from a file or stdin), validates it and writes the runtime
stream consumed by playback. Nothing is stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}

		in := "-"
		if len(args) > 0 {
			in = args[0]
		}
		stream, err := cli.ReadStream(in, cmd.InOrStdin())
		if err != nil {
			return err
		}

		id, _ := cmd.Flags().GetString("id")
		asset, err := a.compileStream(id, stream)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(asset, "", "  ")
			if err != nil {
				return err
			}
			return cli.WriteStream(out, cmd.OutOrStdout(), string(data))
		}
		return cli.WriteStream(out, cmd.OutOrStdout(), asset.RuntimeData)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "-", "Where to write the result")
	compileCmd.Flags().String("id", "", "Asset id recorded in --json output (random when empty)")
	compileCmd.Flags().Bool("json", false, "Write the whole asset as JSON instead of the runtime stream")
}
