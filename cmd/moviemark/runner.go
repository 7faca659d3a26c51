package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"moviemark/internal/bookmarks"
	"moviemark/internal/client"
	"moviemark/internal/container"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// RunnerConfig holds the collaborators the commands need. OpenStore and
// OpenProxy are called lazily so that commands only touch the backends
// they use.
type RunnerConfig struct {
	Output    io.Writer
	Logger    *logrus.Logger
	API       *client.Client
	OpenStore func(ctx context.Context) (*container.Container, error)
	OpenProxy func(ctx context.Context) (*container.Container, error)
}

type Runner struct {
	out       io.Writer
	logger    *logrus.Logger
	api       *client.Client
	openStore func(ctx context.Context) (*container.Container, error)
	openProxy func(ctx context.Context) (*container.Container, error)
}

func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		out:       cfg.Output,
		logger:    cfg.Logger,
		api:       cfg.API,
		openStore: cfg.OpenStore,
		openProxy: cfg.OpenProxy,
	}
}

type storeAction func(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error

// withStore opens the persistence backend for the duration of one command.
func (r *Runner) withStore(action storeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		c, err := r.openStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer c.Close()
		return action(ctx, cmd, c.Bookmarks)
	}
}

func (r *Runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
