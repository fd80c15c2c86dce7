package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/yuanying/maktaba/internal/epub"
	"github.com/yuanying/maktaba/internal/reader"
	"github.com/yuanying/maktaba/internal/translation"
	"github.com/yuanying/maktaba/internal/tui"
)

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Open an EPUB in the terminal reader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readBookOptions(cmd, args)
			if err != nil {
				return err
			}
			glossaryPath, _ := cmd.Flags().GetString("translations")
			glossary, err := loadGlossary(glossaryPath)
			if err != nil {
				return err
			}

			sess := reader.NewSession(reader.SessionOptions{Logger: opts.Logger})
			load := func(ctx context.Context) ([]epub.Chapter, error) {
				book, err := loadBook(ctx, opts)
				if err != nil {
					return nil, err
				}
				return book.Chapters, nil
			}

			m := tui.New(sess, load, tui.Options{Title: opts.Path, Glossary: glossary, RTL: opts.RTL})
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("terminal reader failed: %w", err)
			}

			if st := sess.State(); st.Phase == reader.PhaseError {
				return fmt.Errorf("%s", st.Err)
			}
			return nil
		},
	}
	addBookFlags(cmd)
	cmd.Flags().String("translations", "", "Path to word-translations.json for Arabic word lookup")
	return cmd
}

func loadGlossary(path string) (*translation.Table, error) {
	if path == "" {
		return translation.NewTable(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open translations: %w", err)
	}
	defer f.Close()
	return translation.Decode(f)
}
