package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/stickies/internal/markdown"
	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Show or replace the note",
}

var noteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the note",
	Args:  cobra.NoArgs,
	RunE:  runNoteShow,
}

var noteShowRender bool

var noteSetCmd = &cobra.Command{
	Use:   "set [text|-]",
	Short: "Replace the note",
	Long: `Replace the note with the given text. With "-" or no argument the
note is read from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNoteSet,
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteShowCmd, noteSetCmd)

	noteShowCmd.Flags().BoolVar(&noteShowRender, "render", false, "render markdown for the terminal")
}

func runNoteShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		content, err := s.GetNote(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if noteShowRender {
			content = markdown.Render(outputWidth(cfg), cfg.Display.Theme, content)
		}
		if content == "" {
			return nil
		}
		_, err = fmt.Fprintln(out, strings.TrimRight(content, "\n"))
		return err
	})
}

func runNoteSet(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) == 1 && args[0] != "-" {
		content = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading note: %w", err)
		}
		content = string(data)
	}

	return withStore(func(ctx context.Context, s store.Store, cfg *model.AppConfig) error {
		return s.SaveNote(ctx, content)
	})
}
