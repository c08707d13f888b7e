package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"labnote/internal/api"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Record store maintenance",
	}
	dbCmd.AddCommand(newDBHealthCommand(ctx))
	return dbCmd
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report record store diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withNotebook(func(svc *api.Service) error {
				health := svc.Health(cmd.Context())
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, health); err != nil {
						return err
					}
				} else {
					rows := [][]string{
						{"Driver", health.Driver},
						{"Location", health.Path},
						{"Database exists", yesNo(health.DatabaseExists)},
						{"Readable", yesNo(health.Readable)},
						{"Schema version", strconv.FormatUint(uint64(health.MigrationVersion), 10)},
						{"Dirty migration", yesNo(health.Dirty)},
						{"Tables", strings.Join(health.TablesPresent, ", ")},
						{"Experiments", strconv.Itoa(health.Experiments)},
						{"Sections", strconv.Itoa(health.Sections)},
						{"Measurements", strconv.Itoa(health.Measurements)},
						{"Sealed fields", yesNo(health.Sealed)},
					}
					if len(health.MissingTables) > 0 {
						rows = append(rows, []string{"Missing tables", strings.Join(health.MissingTables, ", ")})
					}
					if health.IntegrityCheck != "" {
						rows = append(rows, []string{"Integrity check", health.IntegrityCheck})
					}
					if health.Error != "" {
						rows = append(rows, []string{"Error", health.Error})
					}
					printTable(cmd, []string{"Check", "Result"}, rows, nil)
				}
				if !health.Healthy() {
					return errors.New("record store is unhealthy")
				}
				if !ctx.jsonOutput() {
					fmt.Fprintln(cmd.OutOrStdout(), "Record store healthy")
				}
				return nil
			})
		},
	}
}
