package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/cli"
	"github.com/aretw0/dialoguetree/internal/config"
	"github.com/aretw0/dialoguetree/internal/logging"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/session"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dialoguetree",
	Short: "Dialogue tree asset compiler and store",
	Long: `dialoguetree compiles node-graph dialogue trees into compact runtime streams,
stores them in a configurable backend and serves them over HTTP or MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "Asset backend: memory, file, redis, postgres, loam")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file or loam backend")
}

// app is the per-invocation state resolved from config and flags.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func setup(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Kind = v
	}
	if v, _ := cmd.Flags().GetString("dir"); v != "" {
		cfg.Store.Dir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) backend(ctx context.Context) (*cli.Backend, error) {
	return cli.OpenBackend(ctx, a.cfg.Store, a.logger)
}

// sessions serializes edits on the backend, across replicas when it provides a locker.
func (a *app) sessions(b *cli.Backend, extra ...dialoguetree.Option) *session.Manager {
	opts := []session.Option{
		session.WithLogger(a.logger),
		session.WithBuilderOptions(a.builderOptions(extra...)...),
		session.WithLockTTL(a.cfg.Server.LockTTL),
	}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
	}
	return session.NewManager(b.SessionStore(), opts...)
}

func (a *app) builderOptions(extra ...dialoguetree.Option) []dialoguetree.Option {
	opts := []dialoguetree.Option{
		dialoguetree.WithLogger(a.logger),
		dialoguetree.WithLayout(a.cfg.Layout.Domain()),
	}
	return append(opts, extra...)
}

// compileStream decodes an authoring stream and compiles it into an asset without
// storing it.
func (a *app) compileStream(id, stream string) (*domain.Asset, error) {
	b := dialoguetree.New(id, a.builderOptions()...)
	if err := b.Open(&domain.Asset{ID: b.ID(), AuthoringData: stream}); err != nil {
		return nil, err
	}
	return b.Compile()
}

// resolveAsset reads the asset named by args[0] from the backend, or compiles the
// authoring stream given with --file.
func (a *app) resolveAsset(cmd *cobra.Command, args []string) (*domain.Asset, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		stream, err := cli.ReadStream(file, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		id := file
		if len(args) > 0 {
			id = args[0]
		}
		return a.compileStream(id, stream)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("an asset id or --file is required")
	}
	b, err := a.backend(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return b.Loader.Load(cmd.Context(), args[0])
}
