package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"labnote/internal/api"
	"labnote/internal/labnote"
	"labnote/internal/parser"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Structure a note without storing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readNote(cmd, args)
			if err != nil {
				return err
			}
			p, err := ctx.newParser()
			if err != nil {
				return err
			}
			parsed := api.Parsed{
				Record:              p.Parse(text),
				CategorizedSections: p.Categorize(text),
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, parsed)
			}
			renderRecord(cmd, parsed.Record)
			renderCategories(cmd, parsed.CategorizedSections)
			return nil
		},
	}
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var experimentID string

	cmd := &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Structure a note and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readNote(cmd, args)
			if err != nil {
				return err
			}
			return ctx.withNotebook(func(svc *api.Service) error {
				result := svc.Process(cmd.Context(), text, api.ProcessOptions{ExperimentID: experimentID})
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, result); err != nil {
						return err
					}
				} else {
					renderRecord(cmd, result.Record)
				}
				if !result.StoredSuccessfully {
					return fmt.Errorf("store %s: %s", result.ExperimentID, result.StoreError)
				}
				if !ctx.jsonOutput() {
					fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d measurements)\n", result.ExperimentID, len(result.Measurements))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&experimentID, "id", "", "Store under this experiment id instead of the extracted one")
	return cmd
}

// readNote reads the named file, or stdin when the argument is absent or "-".
func readNote(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read note: %w", err)
		}
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", errNoInput
	}
	return text, nil
}

func renderRecord(cmd *cobra.Command, rec labnote.Record) {
	out := cmd.OutOrStdout()
	printHeading(cmd, rec.ExperimentID)
	rows := [][]string{
		{"Title", orDash(rec.Title)},
		{"Date", orDash(rec.Date)},
		{"Researcher", orDash(rec.Researcher)},
	}
	if !rec.CreatedAt.IsZero() {
		rows = append(rows,
			[]string{"Created", formatTimestamp(rec.CreatedAt)},
			[]string{"Updated", formatTimestamp(rec.UpdatedAt)},
		)
	}
	printTable(cmd, []string{"Field", "Value"}, rows, nil)

	if rec.Preamble != "" {
		fmt.Fprintln(out)
		printHeading(cmd, "Preamble")
		fmt.Fprintln(out, rec.Preamble)
	}
	for _, name := range labnote.Sections() {
		body := rec.Section(name)
		if body == "" {
			continue
		}
		fmt.Fprintln(out)
		printHeading(cmd, sectionTitle(name))
		fmt.Fprintln(out, body)
	}

	if len(rec.Measurements) > 0 {
		fmt.Fprintln(out)
		printHeading(cmd, "Measurements")
		mrows := make([][]string, 0, len(rec.Measurements))
		for _, m := range rec.Measurements {
			mrows = append(mrows, []string{m.Type, formatValue(m.Value), m.Unit, m.RawText})
		}
		printTable(cmd, []string{"Type", "Value", "Unit", "Source"}, mrows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft})
	}
}

func renderCategories(cmd *cobra.Command, categories parser.Categories) {
	if len(categories) == 0 {
		return
	}
	keys := make([]string, 0, len(categories))
	for category := range categories {
		keys = append(keys, string(category))
	}
	sort.Strings(keys)

	rows := make([][]string, 0)
	for _, key := range keys {
		for _, line := range categories[parser.Category(key)] {
			rows = append(rows, []string{key, excerpt(line, maxCellWidth)})
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())
	printHeading(cmd, "Line categories")
	printTable(cmd, []string{"Category", "Line"}, rows, nil)
}

func sectionTitle(name labnote.Section) string {
	s := string(name)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
