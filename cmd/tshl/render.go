package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Highlight a file once",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().Bool("css", false, "write the CSS of the theme before html output")
}

func runRender(cmd *cobra.Command, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	theme, err := cfg.LoadTheme()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := newSession(ctx, path, source, cfg, theme, cfg.Logger())
	if err != nil {
		return err
	}
	defer s.Close()

	spans := s.all()
	if err := s.highlight(ctx, spans); err != nil {
		return fmt.Errorf("highlighting %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	css, _ := cmd.Flags().GetBool("css")
	page := css && cfg.Format == FormatHTML
	if page {
		if err := writeHTMLHeader(out, theme, cfg.ClassPrefix); err != nil {
			return err
		}
	}
	if err := s.render(out, spans, false); err != nil {
		return err
	}
	if page {
		_, err := fmt.Fprint(out, htmlFooter)
		return err
	}
	return nil
}
