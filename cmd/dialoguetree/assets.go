package main

import (
	"fmt"
	"time"

	"github.com/aretw0/dialoguetree/internal/cli"
	"github.com/spf13/cobra"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage stored dialogue assets",
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored asset ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		b, err := a.backend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		ids, err := b.Loader.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var assetsPushCmd = &cobra.Command{
	Use:   "push <asset-id> [authoring-file|-]",
	Short: "Compile an authoring stream and store it under an asset id",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		in := "-"
		if len(args) > 1 {
			in = args[1]
		}
		stream, err := cli.ReadStream(in, cmd.InOrStdin())
		if err != nil {
			return err
		}

		b, err := a.backend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		if _, err := b.RequireStore(); err != nil {
			return err
		}

		asset, err := a.sessions(b).Import(cmd.Context(), args[0], stream)
		if err != nil {
			return err
		}
		a.logger.Info("asset stored", "asset", asset.ID, "backend", b.Kind)
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%s)\n", asset.ID, asset.UpdatedAt.Format(time.RFC3339))
		return nil
	},
}

var assetsPullCmd = &cobra.Command{
	Use:   "pull <asset-id>",
	Short: "Write the authoring (or runtime) stream of a stored asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		b, err := a.backend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		asset, err := b.Loader.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data := asset.AuthoringData
		if runtime, _ := cmd.Flags().GetBool("runtime"); runtime {
			data = asset.RuntimeData
		}
		out, _ := cmd.Flags().GetString("output")
		return cli.WriteStream(out, cmd.OutOrStdout(), data)
	},
}

var assetsDeleteCmd = &cobra.Command{
	Use:   "delete <asset-id>...",
	Short: "Delete stored assets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		b, err := a.backend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		store, err := b.RequireStore()
		if err != nil {
			return err
		}

		for _, id := range args {
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.logger.Info("asset deleted", "asset", id, "backend", b.Kind)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assetsCmd)
	assetsCmd.AddCommand(assetsListCmd, assetsPushCmd, assetsPullCmd, assetsDeleteCmd)

	assetsPullCmd.Flags().StringP("output", "o", "-", "Where to write the stream")
	assetsPullCmd.Flags().Bool("runtime", false, "Write the runtime stream instead of the authoring stream")
}
