package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forPelevin/lyricsmith/internal/pipeline"
	"github.com/forPelevin/lyricsmith/internal/types"
)

func (a *app) reformatCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "reformat <artifact.txt>",
		Short:        "Re-process a saved lyrics file as cleaned or romanized text",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.reformat(cmd, args[0])
		},
	}
}

func (a *app) reformat(cmd *cobra.Command, artifact string) error {
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
	abs, err := filepath.Abs(artifact)
	if err != nil {
		return err
	}

	cfg := s.Pipeline("", mode)
	cfg.Logger = logger
	if err := cfg.ValidateReformat(abs); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()
	res, err := pipeline.Reformat(ctx, cfg, abs)
	if err != nil {
		return err
	}
	a.print(res)
	return nil
}
