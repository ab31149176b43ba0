package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [asset-id...]",
	Short: "Check assets for consistency",
	Long: `Decodes each asset's authoring stream, checks that its runtime stream is up to date,
and crawls the runtime from the start node reporting unreachable lines.
Without arguments every asset of the backend is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		b := dialoguetree.New("validate", a.builderOptions()...)

		if file, _ := cmd.Flags().GetString("file"); file != "" {
			asset, err := a.resolveAsset(cmd, args)
			if err != nil {
				return err
			}
			if !report(out, b, asset) {
				return errInvalid
			}
			return nil
		}

		backend, err := a.backend(cmd.Context())
		if err != nil {
			return err
		}
		defer backend.Close()

		ids := args
		if len(ids) == 0 {
			if ids, err = backend.Loader.List(cmd.Context()); err != nil {
				return err
			}
		}

		failed := 0
		for _, id := range ids {
			asset, err := backend.Loader.Load(cmd.Context(), id)
			if err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", id, err)
				failed++
				continue
			}
			if !report(out, b, asset) {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d of %d assets", errInvalid, failed, len(ids))
		}
		fmt.Fprintf(out, "%d assets valid ✅\n", len(ids))
		return nil
	},
}

func report(out io.Writer, b *dialoguetree.AssetBuilder, asset *domain.Asset) bool {
	rep, err := b.Verify(asset)
	switch {
	case err != nil:
		fmt.Fprintf(out, "✗ %s: %v\n", asset.ID, err)
		return false
	case rep.MissingStart && len(rep.Unreachable) > 0:
		fmt.Fprintf(out, "✗ %s: no start node\n", asset.ID)
		return false
	case len(rep.Unreachable) > 0:
		fmt.Fprintf(out, "✗ %s: unreachable lines %v\n", asset.ID, rep.Unreachable)
		return false
	default:
		fmt.Fprintf(out, "✓ %s (dead ends %v)\n", asset.ID, rep.DeadEnds)
		return true
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("file", "f", "", "Validate an authoring stream instead of stored assets ('-' for stdin)")
}
