package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"labnote/internal/api"
	"labnote/internal/labnote"
	"labnote/internal/labstore"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank stored records against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("search query is required")
			}
			return ctx.withNotebook(func(svc *api.Service) error {
				results, err := svc.Search(cmd.Context(), query, limit)
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.SearchResponse{Query: query, Results: results, Count: len(results)})
				}
				if len(results) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No records match %q\n", query)
					return nil
				}
				rows := make([][]string, 0, len(results))
				for _, hit := range results {
					rows = append(rows, []string{
						strconv.Itoa(hit.Score),
						hit.ExperimentID,
						orDash(hit.Researcher),
						orDash(hit.Title),
						orDash(hit.Date),
					})
				}
				printTable(cmd, []string{"Score", "Experiment", "Researcher", "Title", "Date"}, rows,
					[]columnAlignment{alignRight})
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", labstore.DefaultLimit, "Maximum results")
	return cmd
}

func newMeasurementsCommand(ctx *commandContext) *cobra.Command {
	var (
		measurementType string
		minValue        float64
		maxValue        float64
		limit           int
	)

	cmd := &cobra.Command{
		Use:   "measurements",
		Short: "Search stored measurements by type and value range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := labnote.MeasurementFilter{
				Type:  strings.TrimSpace(measurementType),
				Limit: limit,
			}
			if cmd.Flags().Changed("min") {
				filter.Min = &minValue
			}
			if cmd.Flags().Changed("max") {
				filter.Max = &maxValue
			}
			return ctx.withNotebook(func(svc *api.Service) error {
				results, err := svc.Measurements(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("measurement search: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.MeasurementResponse{
						Results: results,
						Filters: api.MeasurementFilters{Type: filter.Type, MinValue: filter.Min, MaxValue: filter.Max},
						Count:   len(results),
					})
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No measurements match")
					return nil
				}
				rows := make([][]string, 0, len(results))
				for _, hit := range results {
					rows = append(rows, []string{
						hit.ExperimentID,
						hit.Type,
						formatValue(hit.Value),
						hit.Unit,
						excerpt(hit.RawText, 30),
						orDash(hit.Title),
					})
				}
				printTable(cmd, []string{"Experiment", "Type", "Value", "Unit", "Source", "Title"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight})
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&measurementType, "type", "t", "", "Measurement type substring (temperature, volume, pH, ...)")
	cmd.Flags().Float64Var(&minValue, "min", 0, "Inclusive lower bound")
	cmd.Flags().Float64Var(&maxValue, "max", 0, "Inclusive upper bound")
	cmd.Flags().IntVarP(&limit, "limit", "n", labstore.DefaultLimit, "Maximum results")
	return cmd
}

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <partial>",
		Short: "Autocomplete ids, researchers, titles, and measurement types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial := strings.TrimSpace(args[0])
			return ctx.withNotebook(func(svc *api.Service) error {
				suggestions, err := svc.Suggest(cmd.Context(), partial, limit)
				if err != nil {
					return fmt.Errorf("suggest: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.SuggestionsResponse{Query: partial, Suggestions: suggestions})
				}
				groups := []struct {
					label  string
					values []string
				}{
					{"experiment id", suggestions.ExperimentIDs},
					{"researcher", suggestions.Researchers},
					{"title", suggestions.Titles},
					{"measurement type", suggestions.MeasurementTypes},
				}
				var rows [][]string
				for _, group := range groups {
					for _, value := range group.values {
						rows = append(rows, []string{group.label, value})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No suggestions")
					return nil
				}
				printTable(cmd, []string{"Kind", "Suggestion"}, rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", labstore.DefaultSuggestLimit, "Maximum suggestions per kind")
	return cmd
}
