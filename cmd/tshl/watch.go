package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/noclaps/go-tree-sitter-langtree/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Highlight a file and the lines that change on every write",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	theme, err := cfg.LoadTheme()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := cfg.Logger()
	s, err := newSession(ctx, path, source, cfg, theme, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if err := s.highlight(ctx, s.all()); err != nil {
		return fmt.Errorf("highlighting %s: %w", path, err)
	}
	if err := s.render(out, s.all(), false); err != nil {
		return err
	}

	wcfg := watcher.DefaultConfig(path)
	wcfg.DebounceDur = cfg.Debounce
	wcfg.Logger = logger
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-onChange:
			source, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("reading changed file", slog.String("path", path), slog.Any("error", err))
				continue
			}

			spans, err := s.update(ctx, source)
			if err != nil {
				return fmt.Errorf("highlighting %s: %w", path, err)
			}
			logger.Info("file changed", slog.String("path", path), slog.Int("spans", len(spans)))
			if err := s.render(out, spans, true); err != nil {
				return err
			}
		}
	}
}
