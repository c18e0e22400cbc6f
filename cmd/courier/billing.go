package main

import (
	"context"
	"time"

	billingdomain "github.com/smallbiznis/courier/internal/billing/domain"
	"github.com/spf13/cobra"
)

func BillingCmd() *cobra.Command {
	billingCmd := &cobra.Command{
		Use:   "billing",
		Short: "Billing reports for a service",
	}

	var req billingdomain.BillingDataRequest
	billingCmd.PersistentFlags().StringVar(&req.ServiceID, "service-id", "", "Service to report on")
	billingCmd.PersistentFlags().IntVar(&req.Year, "year", time.Now().Year(), "Financial year (starting April)")
	_ = billingCmd.MarkPersistentFlagRequired("service-id")

	billingCmd.AddCommand(&cobra.Command{
		Use:   "yearly",
		Short: "Usage and rate per band for the financial year",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				rows, err := svc.Billing.YearlyBillingData(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(rows)
			})
		},
	})

	billingCmd.AddCommand(&cobra.Command{
		Use:   "monthly",
		Short: "SMS usage per calendar month for the financial year",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				rows, err := svc.Billing.MonthlyBillingData(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(rows)
			})
		},
	})

	return billingCmd
}
