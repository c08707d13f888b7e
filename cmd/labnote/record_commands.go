package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"labnote/internal/api"
	"labnote/internal/labstore"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <experiment-id>",
		Short: "Display a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withNotebook(func(svc *api.Service) error {
				rec, err := svc.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("load %s: %w", args[0], err)
				}
				if rec == nil {
					return fmt.Errorf("%s: %w", args[0], labstore.ErrNotFound)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.RecordResponse{Record: *rec})
				}
				renderRecord(cmd, *rec)
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withNotebook(func(svc *api.Service) error {
				records, err := svc.List(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list records: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.RecordListResponse{Records: records, Count: len(records)})
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No records stored")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						rec.ExperimentID,
						orDash(rec.Date),
						orDash(rec.Researcher),
						orDash(rec.Title),
						formatTimestamp(rec.CreatedAt),
					})
				}
				printTable(cmd, []string{"Experiment", "Date", "Researcher", "Title", "Stored"}, rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", labstore.DefaultLimit, "Maximum records to list")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <experiment-id>",
		Short: "Remove a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withNotebook(func(svc *api.Service) error {
				id := args[0]
				err := svc.Delete(cmd.Context(), id)
				if errors.Is(err, labstore.ErrNotFound) {
					return fmt.Errorf("no record stored under %s", id)
				}
				if err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.DeleteResponse{ExperimentID: id, Deleted: true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
}
