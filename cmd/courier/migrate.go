package main

import (
	"context"

	"github.com/smallbiznis/courier/internal/migration"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(context.Context, services) error {
				return nil
			}, migration.Module)
		},
	}
}

func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Apply migrations and insert default rates and providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				return svc.Seeder.Run(ctx)
			}, migration.Module)
		},
	}
}
