package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relgraph/relgraph/src/app"

	// database/sql drivers for the supported source dialects
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relgraph",
		Short:         "Migrate a relational schema into a Kùzu property graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd(), verifyCmd())

	return root
}

func migrateCmd() *cobra.Command {
	var overrides app.Overrides

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Reflect the source schema and bulk-load nodes, then edges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := &app.Entrypoint{ConfigOverrides: overrides}

			return runEntrypoint(cmd.Context(), e)
		},
	}

	bindOverrideFlags(cmd, &overrides)

	return cmd
}

func verifyCmd() *cobra.Command {
	var overrides app.Overrides

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Enumerate and count node and relationship types in the graph store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := &app.Entrypoint{ConfigOverrides: overrides, VerifyOnly: true}

			return runEntrypoint(cmd.Context(), e)
		},
	}

	cmd.Flags().StringVar(&overrides.KuzuPath, "kuzu", "", "graph database path (overrides RELGRAPH_KUZU_PATH)")
	cmd.Flags().StringVar(&overrides.ReportPath, "report", "", "write a JSON run report to this path")

	return cmd
}

func bindOverrideFlags(cmd *cobra.Command, o *app.Overrides) {
	cmd.Flags().StringVar(&o.SourceDialect, "dialect", "", "source dialect: postgres, mysql or sqlite")
	cmd.Flags().StringVar(&o.SourceDSN, "dsn", "", "source connection string")
	cmd.Flags().StringVar(&o.SourceSchema, "schema", "", "source schema to reflect")
	cmd.Flags().StringVar(&o.KuzuPath, "kuzu", "", "graph database path")
	cmd.Flags().IntVar(&o.Workers, "workers", 0, "parallel workers (1 = sequential)")
	cmd.Flags().StringVar(&o.ReportPath, "report", "", "write a JSON run report to this path")
}

func runEntrypoint(ctx context.Context, e *app.Entrypoint) error {
	err := e.Init(ctx)
	if err == nil {
		err = e.Run(ctx)
	}

	if closeErr := e.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	return err
}
