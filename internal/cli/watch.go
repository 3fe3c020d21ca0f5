package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/lyricsmith/internal/pipeline"
	"github.com/forPelevin/lyricsmith/internal/types"
	"github.com/forPelevin/lyricsmith/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "watch <dir>",
		Short:        "Transcribe every audio file dropped into a directory",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd, args[0])
		},
	}
	cmd.Flags().Duration("delay", watch.DefaultDelay, "How long a file must stay unchanged before it is processed")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, dir string) error {
	s, err := a.settings(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := setupLogger(s.LogLevel, a.stderr)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	mode := types.ModeCleaned
	if cmd.Flags().Changed("mode") {
		v, _ := cmd.Flags().GetString("mode")
		if mode, err = types.ParseOutputMode(v); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	delay, _ := cmd.Flags().GetDuration("delay")

	handle := func(ctx context.Context, path string) error {
		cfg := s.Pipeline(path, mode)
		cfg.Logger = logger
		ctx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		res, err := pipeline.Run(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "saved %s\n", res.Path)
		return nil
	}

	w, err := watch.New(dir, handle, watch.Options{Delay: delay, Logger: logger})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}
