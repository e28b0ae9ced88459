package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/foundry"
)

func newConnectionsCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "connections",
		Short: "List project connections",
		Long:  "Lists the connections visible on the project data plane and shows which one grounding would use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runConnections(ctx, cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "groundcheck.yaml", "path to defaults file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "load environment variables from this file first")
	return cmd
}

func runConnections(ctx context.Context, cmd *cobra.Command, flags commonFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSmoke(); err != nil {
		return err
	}

	client, _, err := newFoundryClient(ctx, cfg)
	if err != nil {
		return err
	}

	conns, err := client.ListConnections(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(conns) == 0 {
		fmt.Fprintln(out, "No connections visible on the project.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tTARGET\tID")
	for _, c := range conns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Type, c.Target, c.ID)
	}
	w.Flush()

	ref, err := foundry.ResolveBingConnection(ctx, client, cfg.Bing, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if ref == "" {
		fmt.Fprintln(out, "\nGrounding connection: none resolved")
	} else {
		fmt.Fprintf(out, "\nGrounding connection: %s\n", ref)
	}
	return nil
}
