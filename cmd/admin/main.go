// Package main provides the administrative command line for the illustrations server.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v2"

	"github.com/illustrationsapp/illustrations-server/internal/auth"
	"github.com/illustrationsapp/illustrations-server/internal/config"
	"github.com/illustrationsapp/illustrations-server/internal/di"
	"github.com/illustrationsapp/illustrations-server/internal/embedding"
	"github.com/illustrationsapp/illustrations-server/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	ownerFlag := &cli.Int64Flag{
		Name:     "owner",
		Aliases:  []string{"o"},
		Usage:    "Owner id",
		Required: true,
	}

	return &cli.App{
		Name:      "illustrations-admin",
		Usage:     "Administrative tasks for the illustrations server",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Data directory (overrides DATA_DIR)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "token",
				Usage:  "Issue an access token for an owner",
				Flags:  []cli.Flag{ownerFlag},
				Action: tokenCommand,
			},
			{
				Name:  "reindex",
				Usage: "Compute missing illustration embeddings",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:    "owner",
						Aliases: []string{"o"},
						Usage:   "Owner id, 0 for every owner",
					},
				},
				Action: reindexCommand,
			},
			{
				Name:      "import-readwise",
				Usage:     "Import a Readwise highlights CSV export",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{ownerFlag},
				Action: importCommand(func(ctx context.Context, imp *service.Importer, owner int64, _ string, data []byte) (service.ImportStats, error) {
					return imp.ImportReadwise(ctx, owner, bytes.NewReader(data))
				}),
			},
			{
				Name:      "import-koreader",
				Usage:     "Import a KOReader highlights JSON export",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{ownerFlag},
				Action: importCommand(func(ctx context.Context, imp *service.Importer, owner int64, _ string, data []byte) (service.ImportStats, error) {
					return imp.ImportKOReader(ctx, owner, bytes.NewReader(data))
				}),
			},
			{
				Name:      "import-playbooks",
				Usage:     "Import a Google Play Books notes export (.html or .docx)",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{ownerFlag},
				Action: importCommand(func(ctx context.Context, imp *service.Importer, owner int64, path string, data []byte) (service.ImportStats, error) {
					return imp.ImportPlayBooks(ctx, owner, path, data)
				}),
			},
		},
	}
}

// loadConfig reads the same configuration sources as the server.
func loadConfig(c *cli.Context) (*config.Config, error) {
	args := []string{"-env-file", c.String("env-file")}
	if dir := c.String("data-dir"); dir != "" {
		args = append(args, "-data-dir", dir)
	}
	return config.LoadConfig(args)
}

// withContainer runs fn against a container built from the current configuration.
func withContainer(c *cli.Context, fn func(do.Injector) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	injector := di.NewContainer(cfg)
	defer func() { _ = injector.Shutdown() }()

	return fn(injector)
}

func tokenCommand(c *cli.Context) error {
	owner := c.Int64("owner")
	if owner <= 0 {
		return fmt.Errorf("owner must be a positive id, got %d", owner)
	}

	return withContainer(c, func(i do.Injector) error {
		tokens, err := do.Invoke[*auth.TokenService](i)
		if err != nil {
			return err
		}

		token, err := tokens.GenerateAccessToken(owner)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(c.App.Writer, token)
		return err
	})
}

func reindexCommand(c *cli.Context) error {
	owner := c.Int64("owner")
	if owner < 0 {
		return fmt.Errorf("owner must not be negative, got %d", owner)
	}

	return withContainer(c, func(i do.Injector) error {
		backfiller, err := do.Invoke[*embedding.Backfiller](i)
		if err != nil {
			return err
		}

		stats, err := backfiller.Run(c.Context, owner)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(c.App.Writer, "embedded %d illustrations, %d failed\n", stats.Embedded, stats.Failed)
		return err
	})
}

// importFunc imports one export file's contents.
type importFunc func(ctx context.Context, imp *service.Importer, owner int64, path string, data []byte) (service.ImportStats, error)

// importCommand reads the single FILE argument and hands it to run.
func importCommand(run importFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		owner := c.Int64("owner")
		if owner <= 0 {
			return fmt.Errorf("owner must be a positive id, got %d", owner)
		}
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one file argument, got %d", c.NArg())
		}

		path := c.Args().First()
		//#nosec G304 -- path is supplied by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		return withContainer(c, func(i do.Injector) error {
			importer, err := do.Invoke[*service.Importer](i)
			if err != nil {
				return err
			}

			stats, err := run(c.Context, importer, owner, path, data)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(c.App.Writer, "imported %d of %d rows (%d skipped)\n", stats.Imported, stats.Rows, stats.Skipped)
			return err
		})
	}
}
