package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"labnote/internal/daemon"
	"labnote/internal/logging"
	"labnote/internal/metrics"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if value := strings.TrimSpace(bind); value != "" {
				cfg.API.Bind = value
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			m := metrics.New()
			svc, store, err := openNotebook(cfg, logger, m)
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := daemon.New(cfg, svc, m, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}

			runCtx := cmd.Context()
			if err := d.Start(runCtx); err != nil {
				return err
			}
			defer d.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "labnote API listening on http://%s\n", d.Status().Address)
			<-runCtx.Done()
			logger.Info("labnote server shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind (host:port)")
	return cmd
}
