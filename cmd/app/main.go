package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("force") {
		cfg.Sync.Force = true
	}
	if cmd.Bool("ignore-asset-cache") {
		cfg.Assets.IgnoreCache = true
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("sync error: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("serve error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.ServeMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp error: %w", err)
	}
	return nil
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "Incremental document sync from a remote workspace into a local searchable collection",
		Action: runSync,
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:    "force",
				Usage:   "Re-render every document regardless of fingerprints",
				Sources: cli.EnvVars("ANSUZ_FORCE_SYNC"),
			},
			&cli.BoolFlag{
				Name:    "ignore-asset-cache",
				Usage:   "Re-download every asset even when a cached copy exists",
				Sources: cli.EnvVars("ANSUZ_IGNORE_ASSET_CACHE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the read-only preview HTTP server",
				Action: runServe,
				Flags:  []cli.Flag{configFlag()},
			},
			{
				Name:   "mcp",
				Usage:  "Expose the synced collection over MCP stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag()},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
